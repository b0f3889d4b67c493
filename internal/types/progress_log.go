package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProgressLog records one day of claimed learning. The (resolution_id, date)
// pair is unique; a second log for the same day is a conflict, not an upsert.
type ProgressLog struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ResolutionID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_resolution_date,unique" json:"resolution_id"`
	Resolution        *Resolution    `gorm:"constraint:OnDelete:CASCADE;foreignKey:ResolutionID;references:ID" json:"resolution,omitempty"`
	Date              time.Time      `gorm:"column:date;type:date;not null;index:idx_resolution_date,unique" json:"date"`
	Content           string         `gorm:"column:content;not null" json:"content"`
	InputType         string         `gorm:"column:input_type;not null;default:'text'" json:"input_type"`
	SourceReference   string         `gorm:"column:source_reference;not null;default:''" json:"source_reference"`
	DurationMinutes   int            `gorm:"column:duration_minutes;not null;default:0" json:"duration_minutes"`
	ConceptsClaimed   datatypes.JSON `gorm:"type:jsonb;column:concepts_claimed" json:"concepts_claimed"`
	Verified          bool           `gorm:"column:verified;not null;default:false" json:"verified"`
	VerificationScore *float64       `gorm:"column:verification_score" json:"verification_score,omitempty"`
	CreatedAt         time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProgressLog) TableName() string { return "progress_log" }
