package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Syllabus is the day-by-day plan used when a resolution runs in session
// mode. Content holds the generated day entries as one jsonb document.
type Syllabus struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ResolutionID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"resolution_id"`
	Resolution    *Resolution    `gorm:"constraint:OnDelete:CASCADE;foreignKey:ResolutionID;references:ID" json:"resolution,omitempty"`
	Content       datatypes.JSON `gorm:"type:jsonb;column:content" json:"content"`
	TotalDays     int            `gorm:"column:total_days;not null;default:0" json:"total_days"`
	GeneratedAt   time.Time      `gorm:"column:generated_at;not null;default:now()" json:"generated_at"`
	LastAdaptedAt *time.Time     `gorm:"column:last_adapted_at" json:"last_adapted_at,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Syllabus) TableName() string { return "syllabus" }
