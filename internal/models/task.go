package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Legacy task statuses.
const (
	TaskStatusNew        = "New"
	TaskStatusInProgress = "In Progress"
	TaskStatusCompleted  = "Completed"
)

// TaskStatuses lists every status a move request may set.
var TaskStatuses = []string{
	TaskStatusNew,
	TaskStatusInProgress,
	TaskStatusCompleted,
}

// Task priorities.
const (
	TaskPriorityLow    = "Low"
	TaskPriorityMedium = "Medium"
	TaskPriorityHigh   = "High"
	TaskPriorityUrgent = "Urgent"
)

// Task is a work item, optionally linked to an account or contact record
// managed elsewhere. Placement fields mirror Lead.
type Task struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	OrgID       uint            `json:"org_id" gorm:"index;not null"`
	Title       string          `json:"title" gorm:"not null"`
	Status      string          `json:"status" gorm:"size:20;default:'New';index"`
	Priority    string          `json:"priority" gorm:"size:10;default:'Medium'"`
	StageID     *uint           `json:"stage_id" gorm:"index"`
	KanbanOrder decimal.Decimal `json:"kanban_order" gorm:"type:decimal(20,8)"`
	DueDate     *time.Time      `json:"due_date"`
	AccountID   *uint           `json:"account_id" gorm:"index"`
	ContactID   *uint           `json:"contact_id" gorm:"index"`
	CreatedByID uint            `json:"created_by_id" gorm:"index"`
	Assignees   []User          `json:"assignees,omitempty" gorm:"many2many:task_assignees"`
	IsDeleted   bool            `json:"is_deleted,omitempty" gorm:"default:false;index"`
	CreatedAt   time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
