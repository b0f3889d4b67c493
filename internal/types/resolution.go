package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ResolutionStatusActive    = "active"
	ResolutionStatusCompleted = "completed"
)

// Resolution is the root aggregate: a long-term learning goal plus the
// plan-health fields the refresh loop maintains.
type Resolution struct {
	ID                   uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID               uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User                 *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	GoalStatement        string         `gorm:"column:goal_statement;not null" json:"goal_statement"`
	Category             string         `gorm:"column:category;not null" json:"category"`
	SkillLevel           string         `gorm:"column:skill_level;not null;default:'beginner'" json:"skill_level"`
	Cadence              string         `gorm:"column:cadence;not null;default:'daily'" json:"cadence"`
	Status               string         `gorm:"column:status;not null;default:'active'" json:"status"`
	CurrentMilestone     int            `gorm:"column:current_milestone;not null;default:0" json:"current_milestone"`
	RoadmapGenerated     bool           `gorm:"column:roadmap_generated;not null;default:false" json:"roadmap_generated"`
	RoadmapNeedsRefresh  bool           `gorm:"column:roadmap_needs_refresh;not null;default:false" json:"roadmap_needs_refresh"`
	GoalLikelihoodScore  *float64       `gorm:"column:goal_likelihood_score" json:"goal_likelihood_score,omitempty"`
	NextRoadmapRefresh   *time.Time     `gorm:"column:next_roadmap_refresh" json:"next_roadmap_refresh,omitempty"`
	RoadmapMode          string         `gorm:"column:roadmap_mode;not null;default:'milestone'" json:"roadmap_mode"`
	DurationDays         int            `gorm:"column:duration_days;not null;default:0" json:"duration_days"`
	DailyTimeMinutes     int            `gorm:"column:daily_time_minutes;not null;default:30" json:"daily_time_minutes"`
	CurrentDay           int            `gorm:"column:current_day;not null;default:1" json:"current_day"`
	CreatedAt            time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Resolution) TableName() string { return "resolution" }
