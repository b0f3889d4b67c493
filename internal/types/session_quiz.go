package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeTrueFalse      = "true_false"
	QuestionTypeShortAnswer    = "short_answer"
)

// SessionQuiz checks retention at the end of a daily session. Questions and
// responses are rows rather than one jsonb blob so per-concept results feed
// the learning metrics directly.
type SessionQuiz struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DailySessionID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"daily_session_id"`
	DailySession   *DailySession  `gorm:"constraint:OnDelete:CASCADE;foreignKey:DailySessionID;references:ID" json:"daily_session,omitempty"`
	IsCompleted    bool           `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	Score          *float64       `gorm:"column:score" json:"score,omitempty"`
	Passed         *bool          `gorm:"column:passed" json:"passed,omitempty"`
	CompletedAt    *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Questions []*SessionQuizQuestion `gorm:"foreignKey:SessionQuizID;references:ID" json:"questions,omitempty"`
}

func (SessionQuiz) TableName() string { return "session_quiz" }

type SessionQuizQuestion struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionQuizID uuid.UUID      `gorm:"type:uuid;not null;index:idx_quiz_order,unique" json:"session_quiz_id"`
	OrderIndex    int            `gorm:"column:order_index;not null;index:idx_quiz_order,unique" json:"order_index"`
	QuestionType  string         `gorm:"column:question_type;not null" json:"question_type"`
	QuestionText  string         `gorm:"column:question_text;not null" json:"question_text"`
	Options       datatypes.JSON `gorm:"type:jsonb;column:options" json:"options"`
	CorrectAnswer string         `gorm:"column:correct_answer;not null;default:''" json:"-"`
	Concept       string         `gorm:"column:concept;not null;default:''" json:"concept"`
	Difficulty    string         `gorm:"column:difficulty;not null;default:'medium'" json:"difficulty"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (SessionQuizQuestion) TableName() string { return "session_quiz_question" }

type SessionQuizResponse struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	QuestionID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"question_id"`
	Answer     string         `gorm:"column:answer;not null" json:"answer"`
	IsCorrect  bool           `gorm:"column:is_correct;not null;default:false" json:"is_correct"`
	Feedback   string         `gorm:"column:feedback;not null;default:''" json:"feedback"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (SessionQuizResponse) TableName() string { return "session_quiz_response" }
