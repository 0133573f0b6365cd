package models

import "time"

// Pipeline target types. A pipeline's stages only ever hold cards of one
// entity kind; boards keep their own column tables.
const (
	PipelineTargetLead = "lead"
	PipelineTargetTask = "task"
)

// Pipeline is a named, org-scoped ordered workflow. Pipelines are never
// hard-deleted: deactivation is blocked while any card references one of
// its stages, and inactive pipelines are hidden from active use.
type Pipeline struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	OrgID       uint      `json:"org_id" gorm:"index;not null"`
	Name        string    `json:"name" gorm:"not null;size:100"`
	TargetType  string    `json:"target_type" gorm:"size:20;default:'lead';index"`
	IsActive    bool      `json:"is_active" gorm:"default:true;index"`
	CreatedByID uint      `json:"created_by_id" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Stages      []Stage   `json:"stages,omitempty" gorm:"foreignKey:PipelineID"`
}
