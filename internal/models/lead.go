package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Legacy lead statuses. "converted" is terminal and never appears as a
// kanban column.
const (
	LeadStatusAssigned  = "assigned"
	LeadStatusInProcess = "in process"
	LeadStatusRecycled  = "recycled"
	LeadStatusClosed    = "closed"
	LeadStatusConverted = "converted"
)

// LeadStatuses lists every status a move request may set.
var LeadStatuses = []string{
	LeadStatusAssigned,
	LeadStatusInProcess,
	LeadStatusRecycled,
	LeadStatusClosed,
	LeadStatusConverted,
}

// Lead is a sales lead. StageID is nil while the lead lives in status-only
// mode; KanbanOrder positions it within its column and is only ever changed
// through the move endpoint.
type Lead struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	OrgID       uint            `json:"org_id" gorm:"index;not null"`
	Title       string          `json:"title" gorm:"not null"`
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	Email       string          `json:"email" gorm:"index"`
	Phone       string          `json:"phone"`
	Status      string          `json:"status" gorm:"size:20;default:'assigned';index"`
	Rating      int             `json:"rating"`
	Probability int             `json:"probability"`
	StageID     *uint           `json:"stage_id" gorm:"index"`
	KanbanOrder decimal.Decimal `json:"kanban_order" gorm:"type:decimal(20,8)"`
	CreatedByID uint            `json:"created_by_id" gorm:"index"`
	Assignees   []User          `json:"assignees,omitempty" gorm:"many2many:lead_assignees"`
	IsDeleted   bool            `json:"is_deleted,omitempty" gorm:"default:false;index"`
	CreatedAt   time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
