package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LearningMetric tracks per-concept mastery. MasteryScore is
// correct_count/attempts; below 0.7 the concept needs reinforcement.
type LearningMetric struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ResolutionID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_resolution_concept,unique" json:"resolution_id"`
	Resolution         *Resolution    `gorm:"constraint:OnDelete:CASCADE;foreignKey:ResolutionID;references:ID" json:"resolution,omitempty"`
	Concept            string         `gorm:"column:concept;not null;index:idx_resolution_concept,unique" json:"concept"`
	MasteryScore       float64        `gorm:"column:mastery_score;not null;default:0" json:"mastery_score"`
	Attempts           int            `gorm:"column:attempts;not null;default:0" json:"attempts"`
	CorrectCount       int            `gorm:"column:correct_count;not null;default:0" json:"correct_count"`
	NeedsReinforcement bool           `gorm:"column:needs_reinforcement;not null;default:true" json:"needs_reinforcement"`
	LastTestedAt       *time.Time     `gorm:"column:last_tested_at" json:"last_tested_at,omitempty"`
	CreatedAt          time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LearningMetric) TableName() string { return "learning_metric" }
