package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Board is the lightweight kanban surface: plain ordered columns with no
// status axis, no WIP limits and no pipeline registry behind them.
type Board struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	OrgID       uint           `json:"org_id" gorm:"index;not null"`
	Name        string         `json:"name" gorm:"not null;size:100"`
	Description string         `json:"description"`
	Settings    datatypes.JSON `json:"settings,omitempty"`
	IsActive    bool           `json:"is_active" gorm:"default:true;index"`
	CreatedByID uint           `json:"created_by_id" gorm:"index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Columns     []BoardColumn  `json:"columns,omitempty" gorm:"foreignKey:BoardID"`
}

// BoardColumn is one column of a board.
type BoardColumn struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	BoardID   uint        `json:"board_id" gorm:"index;not null"`
	Name      string      `json:"name" gorm:"not null;size:100"`
	Order     int         `json:"order" gorm:"column:column_order;index"`
	Color     string      `json:"color" gorm:"size:7"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Tasks     []BoardTask `json:"tasks,omitempty" gorm:"foreignKey:ColumnID"`
}

// BoardTask is a card on a board, positioned by the same fractional key the
// lead/task boards use.
type BoardTask struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	ColumnID     uint            `json:"column_id" gorm:"index;not null"`
	Title        string          `json:"title" gorm:"not null"`
	Description  string          `json:"description"`
	KanbanOrder  decimal.Decimal `json:"kanban_order" gorm:"type:decimal(20,8)"`
	AssignedToID *uint           `json:"assigned_to_id" gorm:"index"`
	CreatedByID  uint            `json:"created_by_id" gorm:"index"`
	DueDate      *time.Time      `json:"due_date"`
	CreatedAt    time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
