package kanban

import "crm-backend/internal/models"

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

// DefaultStages returns the built-in stage set for a new pipeline of the
// given target type, in display order. Returns nil for unknown targets.
func DefaultStages(targetType string) []models.Stage {
	switch targetType {
	case models.PipelineTargetLead:
		return []models.Stage{
			{Name: "New", Order: 0, Color: "#3498db", StageType: models.StageTypeOpen, MapsToStatus: strp(models.LeadStatusAssigned)},
			{Name: "Contacted", Order: 1, Color: "#5dade2", StageType: models.StageTypeInProgress, MapsToStatus: strp(models.LeadStatusInProcess), WinProbability: intp(10)},
			{Name: "Qualified", Order: 2, Color: "#f39c12", StageType: models.StageTypeInProgress, MapsToStatus: strp(models.LeadStatusInProcess), WinProbability: intp(35)},
			{Name: "Proposal", Order: 3, Color: "#e67e22", StageType: models.StageTypeInProgress, WinProbability: intp(60)},
			{Name: "Negotiation", Order: 4, Color: "#d35400", StageType: models.StageTypeInProgress, WinProbability: intp(80)},
			{Name: "Won", Order: 5, Color: "#2ecc71", StageType: models.StageTypeWon, MapsToStatus: strp(models.LeadStatusClosed), WinProbability: intp(100)},
			{Name: "Lost", Order: 6, Color: "#e74c3c", StageType: models.StageTypeLost, MapsToStatus: strp(models.LeadStatusClosed), WinProbability: intp(0)},
		}
	case models.PipelineTargetTask:
		return []models.Stage{
			{Name: "To Do", Order: 0, Color: "#3498db", StageType: models.StageTypeOpen, MapsToStatus: strp(models.TaskStatusNew)},
			{Name: "In Progress", Order: 1, Color: "#f39c12", StageType: models.StageTypeInProgress, MapsToStatus: strp(models.TaskStatusInProgress)},
			{Name: "Review", Order: 2, Color: "#9b59b6", StageType: models.StageTypeInProgress, MapsToStatus: strp(models.TaskStatusInProgress)},
			{Name: "Done", Order: 3, Color: "#2ecc71", StageType: models.StageTypeCompleted, MapsToStatus: strp(models.TaskStatusCompleted)},
		}
	}
	return nil
}

// DefaultBoardColumns returns the built-in columns for a new board.
func DefaultBoardColumns() []models.BoardColumn {
	return []models.BoardColumn{
		{Name: "To Do", Order: 0, Color: "#3498db"},
		{Name: "In Progress", Order: 1, Color: "#f39c12"},
		{Name: "Done", Order: 2, Color: "#2ecc71"},
	}
}
