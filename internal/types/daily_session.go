package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DailySession is one day of study material. Reinforcement sessions repeat a
// day_number, so the column is indexed but not unique.
type DailySession struct {
	ID                  uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ResolutionID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_resolution_day" json:"resolution_id"`
	Resolution          *Resolution    `gorm:"constraint:OnDelete:CASCADE;foreignKey:ResolutionID;references:ID" json:"resolution,omitempty"`
	DayNumber           int            `gorm:"column:day_number;not null;index:idx_resolution_day" json:"day_number"`
	Title               string         `gorm:"column:title;not null" json:"title"`
	Content             string         `gorm:"column:content;not null;default:''" json:"content"`
	Summary             string         `gorm:"column:summary;not null;default:''" json:"summary"`
	Concepts            datatypes.JSON `gorm:"type:jsonb;column:concepts" json:"concepts"`
	IsCompleted         bool           `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	CompletedAt         *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	IsReinforcement     bool           `gorm:"column:is_reinforcement;not null;default:false" json:"is_reinforcement"`
	ReinforcedConcepts  datatypes.JSON `gorm:"type:jsonb;column:reinforced_concepts" json:"reinforced_concepts"`
	CreatedAt           time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (DailySession) TableName() string { return "daily_session" }
