package kanban

import (
	"gorm.io/gorm"

	"crm-backend/internal/models"
)

// VisibleTo narrows q to the cards the viewer may see: admins get the whole
// org, everyone else only what they created or are assigned to. joinTable
// and fkColumn name the assignee join table ("lead_assignees"/"lead_id",
// "task_assignees"/"task_id").
func VisibleTo(db *gorm.DB, q *gorm.DB, viewer *models.User, joinTable, fkColumn string) *gorm.DB {
	if viewer.IsAdmin() {
		return q
	}
	assigned := db.Table(joinTable).Select(fkColumn).Where("user_id = ?", viewer.ID)
	return q.Where("created_by_id = ? OR id IN (?)", viewer.ID, assigned)
}

// CanMove reports whether the viewer may move a specific card: admins
// always, otherwise the creator or any assignee.
func CanMove(viewer *models.User, createdByID uint, assignees []models.User) bool {
	if viewer.IsAdmin() || createdByID == viewer.ID {
		return true
	}
	for _, a := range assignees {
		if a.ID == viewer.ID {
			return true
		}
	}
	return false
}
