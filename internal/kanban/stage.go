package kanban

import (
	"gorm.io/gorm"

	"crm-backend/internal/models"
)

// CheckWIP counts the current occupants of stage within the card table,
// excluding the moving card itself, and rejects the move when the stage is
// at its limit. A nil limit means unlimited.
func CheckWIP(db *gorm.DB, table string, stage *models.Stage, movingID uint) error {
	if stage.WIPLimit == nil {
		return nil
	}
	var occupants int64
	err := db.Table(table).
		Where("stage_id = ? AND is_deleted = ? AND id <> ?", stage.ID, false, movingID).
		Count(&occupants).Error
	if err != nil {
		return err
	}
	if occupants >= int64(*stage.WIPLimit) {
		return &WIPLimitError{StageName: stage.Name, Limit: *stage.WIPLimit}
	}
	return nil
}

// EnterStage applies the stage's entry effects to a lead: the status
// mapping always wins, the win probability only nudges a still-zero value.
func EnterStage(lead *models.Lead, stage *models.Stage) {
	lead.StageID = &stage.ID
	if stage.MapsToStatus != nil {
		lead.Status = *stage.MapsToStatus
	}
	if stage.WinProbability != nil && lead.Probability == 0 {
		lead.Probability = *stage.WinProbability
	}
}

// EnterTaskStage applies the stage's entry effects to a task.
func EnterTaskStage(task *models.Task, stage *models.Stage) {
	task.StageID = &stage.ID
	if stage.MapsToStatus != nil {
		task.Status = *stage.MapsToStatus
	}
}
