package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	QuizTypeContextual = "contextual"
	QuizTypeTeachBack  = "teach_back"
)

// VerificationQuiz challenges one progress log. One quiz per log; completion
// is write-once.
type VerificationQuiz struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProgressLogID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"progress_log_id"`
	ProgressLog   *ProgressLog   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProgressLogID;references:ID" json:"progress_log,omitempty"`
	Questions     datatypes.JSON `gorm:"type:jsonb;column:questions" json:"questions"`
	Responses     datatypes.JSON `gorm:"type:jsonb;column:responses" json:"responses"`
	QuizType      string         `gorm:"column:quiz_type;not null;default:'teach_back'" json:"quiz_type"`
	Score         *float64       `gorm:"column:score" json:"score,omitempty"`
	Passed        *bool          `gorm:"column:passed" json:"passed,omitempty"`
	IsCompleted   bool           `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	CompletedAt   *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (VerificationQuiz) TableName() string { return "verification_quiz" }
