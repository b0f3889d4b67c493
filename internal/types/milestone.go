package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MilestoneStatusPending    = "pending"
	MilestoneStatusInProgress = "in_progress"
	MilestoneStatusCompleted  = "completed"
)

// Milestone is one step of a roadmap. At most one milestone per resolution
// is in_progress; the only transition path is the Complete operation.
type Milestone struct {
	ID                   uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ResolutionID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_resolution_order,unique" json:"resolution_id"`
	Resolution           *Resolution    `gorm:"constraint:OnDelete:CASCADE;foreignKey:ResolutionID;references:ID" json:"resolution,omitempty"`
	OrderIndex           int            `gorm:"column:order_index;not null;index:idx_resolution_order,unique" json:"order_index"`
	Title                string         `gorm:"column:title;not null" json:"title"`
	Description          string         `gorm:"column:description;not null;default:''" json:"description"`
	VerificationCriteria string         `gorm:"column:verification_criteria;not null;default:''" json:"verification_criteria"`
	TargetDate           *time.Time     `gorm:"column:target_date" json:"target_date,omitempty"`
	Status               string         `gorm:"column:status;not null;default:'pending'" json:"status"`
	IsEdited             bool           `gorm:"column:is_edited;not null;default:false" json:"is_edited"`
	CompletedAt          *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt            time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Milestone) TableName() string { return "milestone" }
