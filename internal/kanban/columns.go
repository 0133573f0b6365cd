package kanban

import (
	"gorm.io/gorm"

	"crm-backend/internal/models"
)

// StatusColumn is one fixed column of a status-mode board. The set and
// ordering are static per entity kind.
type StatusColumn struct {
	Status    string
	Name      string
	Order     int
	Color     string
	StageType string
}

// leadStatusColumns is the status-mode board for leads. "converted" is a
// terminal state and never rendered as a column.
var leadStatusColumns = []StatusColumn{
	{Status: models.LeadStatusAssigned, Name: "Assigned", Order: 1, Color: "#3498db", StageType: models.StageTypeOpen},
	{Status: models.LeadStatusInProcess, Name: "In Process", Order: 2, Color: "#f39c12", StageType: models.StageTypeInProgress},
	{Status: models.LeadStatusRecycled, Name: "Recycled", Order: 3, Color: "#9b59b6", StageType: models.StageTypeOpen},
	{Status: models.LeadStatusClosed, Name: "Closed", Order: 4, Color: "#e74c3c", StageType: models.StageTypeLost},
}

var taskStatusColumns = []StatusColumn{
	{Status: models.TaskStatusNew, Name: "New", Order: 1, Color: "#3498db", StageType: models.StageTypeOpen},
	{Status: models.TaskStatusInProgress, Name: "In Progress", Order: 2, Color: "#f39c12", StageType: models.StageTypeInProgress},
	{Status: models.TaskStatusCompleted, Name: "Completed", Order: 3, Color: "#2ecc71", StageType: models.StageTypeCompleted},
}

// LeadStatusColumns returns the fixed lead columns in display order.
func LeadStatusColumns() []StatusColumn {
	return leadStatusColumns
}

// TaskStatusColumns returns the fixed task columns in display order.
func TaskStatusColumns() []StatusColumn {
	return taskStatusColumns
}

// ColumnRef identifies one kanban column: a stage, or a legacy status for
// cards carrying no stage.
type ColumnRef struct {
	StageID *uint
	Status  string
}

// Apply narrows q to cards sitting in the referenced column.
func (r ColumnRef) Apply(q *gorm.DB) *gorm.DB {
	if r.StageID != nil {
		return q.Where("stage_id = ?", *r.StageID)
	}
	return q.Where("status = ? AND stage_id IS NULL", r.Status)
}
