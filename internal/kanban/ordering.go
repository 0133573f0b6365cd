package kanban

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// OrderBaseline is the kanban_order of the first card in an empty column.
	OrderBaseline = decimal.NewFromInt(1000)
	// OrderStep separates appended cards so later midpoints keep room.
	OrderStep = decimal.NewFromInt(1000)
)

// Midpoint returns the arithmetic midpoint of two order keys.
func Midpoint(a, b decimal.Decimal) decimal.Decimal {
	return a.Add(b).Div(decimal.NewFromInt(2))
}

// QueryFn returns a fresh query over the card table. Fresh matters: gorm
// chains accumulate conditions, so every lookup starts from a new query.
type QueryFn func() *gorm.DB

// OrderHints carries the client's positioning request for a move. Explicit
// wins outright; otherwise AboveID/BelowID name the intended neighbors and
// zero means absent.
type OrderHints struct {
	Explicit *decimal.Decimal
	AboveID  uint
	BelowID  uint
}

type cardRow struct {
	ID          uint
	KanbanOrder decimal.Decimal
}

// ComputeOrder resolves the kanban_order for the card movingID landing in a
// column. cards must return a tenant-scoped query over the card table;
// column the same narrowed to the destination column.
//
// Resolution, in priority order:
//   - explicit order given: used verbatim;
//   - both neighbors resolve: midpoint of the two;
//   - above only: midpoint with its in-column successor, or above + step
//     when it is the last card;
//   - below only: below - step (historical behavior, kept as is: no
//     symmetric predecessor search);
//   - no hints: after the last card in the column, or the baseline when
//     the column is empty.
func ComputeOrder(cards, column QueryFn, movingID uint, h OrderHints) (decimal.Decimal, error) {
	if h.Explicit != nil {
		return *h.Explicit, nil
	}

	above, err := fetchCard(cards(), h.AboveID)
	if err != nil {
		return decimal.Zero, err
	}
	below, err := fetchCard(cards(), h.BelowID)
	if err != nil {
		return decimal.Zero, err
	}

	switch {
	case above != nil && below != nil:
		return Midpoint(above.KanbanOrder, below.KanbanOrder), nil

	case above != nil:
		var succ cardRow
		err := column().
			Select("id, kanban_order").
			// Decimal params bind as text; the cast keeps the comparison
			// numeric on both postgres and sqlite.
			Where("kanban_order > CAST(? AS NUMERIC) AND id <> ? AND id <> ?", above.KanbanOrder, movingID, above.ID).
			Order("kanban_order").
			Limit(1).
			Take(&succ).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return above.KanbanOrder.Add(OrderStep), nil
			}
			return decimal.Zero, err
		}
		return Midpoint(above.KanbanOrder, succ.KanbanOrder), nil

	case below != nil:
		return below.KanbanOrder.Sub(OrderStep), nil

	default:
		var last cardRow
		err := column().
			Select("id, kanban_order").
			Where("id <> ?", movingID).
			Order("kanban_order DESC").
			Limit(1).
			Take(&last).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return OrderBaseline, nil
			}
			return decimal.Zero, err
		}
		return last.KanbanOrder.Add(OrderStep), nil
	}
}

// fetchCard resolves a neighbor hint. An id that does not resolve within
// the scoped query is treated as no hint at all, not as an error.
func fetchCard(q *gorm.DB, id uint) (*cardRow, error) {
	if id == 0 {
		return nil, nil
	}
	var row cardRow
	err := q.Select("id, kanban_order").Where("id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
