package models

import "time"

// Stage types classify what reaching a stage means for the card.
const (
	StageTypeOpen       = "open"
	StageTypeInProgress = "in_progress"
	StageTypeWon        = "won"
	StageTypeLost       = "lost"
	StageTypeCompleted  = "completed"
)

// Stage is one column of a pipeline. Order is the display position within
// the pipeline; ties are broken by id. MapsToStatus, when set, overwrites
// the card's legacy status on entry so both views stay consistent.
// WinProbability only applies to lead pipelines.
type Stage struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	PipelineID     uint      `json:"pipeline_id" gorm:"index;not null"`
	Name           string    `json:"name" gorm:"not null;size:100"`
	Order          int       `json:"order" gorm:"column:stage_order;index"`
	Color          string    `json:"color" gorm:"size:7"`
	StageType      string    `json:"stage_type" gorm:"size:20;default:'open'"`
	WIPLimit       *int      `json:"wip_limit"`
	MapsToStatus   *string   `json:"maps_to_status" gorm:"size:40"`
	WinProbability *int      `json:"win_probability"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
