package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	EventSessionQuizCompleted      = "session_quiz_completed"
	EventVerificationQuizCompleted = "verification_quiz_completed"
	EventRecoveryAnalysis          = "recovery_analysis"
	EventSessionAdapted            = "session_adapted"
)

// LearningEvent is the analytics trace store. Append-only, no soft delete;
// writes are fire-and-forget so a failed insert never fails the request.
type LearningEvent struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ResolutionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"resolution_id"`
	EventType    string         `gorm:"column:event_type;not null;index" json:"event_type"`
	Day          int            `gorm:"column:day;not null;default:0" json:"day"`
	Score        *float64       `gorm:"column:score" json:"score,omitempty"`
	Input        datatypes.JSON `gorm:"type:jsonb;column:input" json:"input"`
	Output       datatypes.JSON `gorm:"type:jsonb;column:output" json:"output"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (LearningEvent) TableName() string { return "learning_event" }
