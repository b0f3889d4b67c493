package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type WeeklyGoal struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ResolutionID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"resolution_id"`
	Resolution     *Resolution    `gorm:"constraint:OnDelete:CASCADE;foreignKey:ResolutionID;references:ID" json:"resolution,omitempty"`
	GoalText       string         `gorm:"column:goal_text;not null" json:"goal_text"`
	MicroActions   datatypes.JSON `gorm:"type:jsonb;column:micro_actions" json:"micro_actions"`
	MotivationNote string         `gorm:"column:motivation_note;not null;default:''" json:"motivation_note"`
	WeekStart      time.Time      `gorm:"column:week_start;type:date;not null" json:"week_start"`
	WeekEnd        time.Time      `gorm:"column:week_end;type:date;not null" json:"week_end"`
	IsDismissed    bool           `gorm:"column:is_dismissed;not null;default:false" json:"is_dismissed"`
	IsCompleted    bool           `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (WeeklyGoal) TableName() string { return "weekly_goal" }
