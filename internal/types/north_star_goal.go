package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NorthStarGoal is the end-of-year vision for a resolution. One per
// resolution; regeneration replaces it in place.
type NorthStarGoal struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ResolutionID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"resolution_id"`
	Resolution         *Resolution    `gorm:"constraint:OnDelete:CASCADE;foreignKey:ResolutionID;references:ID" json:"resolution,omitempty"`
	GoalStatement      string         `gorm:"column:goal_statement;not null" json:"goal_statement"`
	KeyTransformations datatypes.JSON `gorm:"type:jsonb;column:key_transformations" json:"key_transformations"`
	IdentityShift      string         `gorm:"column:identity_shift;not null;default:''" json:"identity_shift"`
	WhyItMatters       string         `gorm:"column:why_it_matters;not null;default:''" json:"why_it_matters"`
	TargetDate         *time.Time     `gorm:"column:target_date;type:date" json:"target_date,omitempty"`
	IsAIGenerated      bool           `gorm:"column:is_ai_generated;not null;default:true" json:"is_ai_generated"`
	IsEdited           bool           `gorm:"column:is_edited;not null;default:false" json:"is_edited"`
	CreatedAt          time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (NorthStarGoal) TableName() string { return "north_star_goal" }
