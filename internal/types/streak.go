package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Streak keeps the activity and verification counters for one resolution.
// LongestStreak never drops below CurrentStreak.
type Streak struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ResolutionID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"resolution_id"`
	Resolution        *Resolution    `gorm:"constraint:OnDelete:CASCADE;foreignKey:ResolutionID;references:ID" json:"resolution,omitempty"`
	CurrentStreak     int            `gorm:"column:current_streak;not null;default:0" json:"current_streak"`
	LongestStreak     int            `gorm:"column:longest_streak;not null;default:0" json:"longest_streak"`
	TotalVerifiedDays int            `gorm:"column:total_verified_days;not null;default:0" json:"total_verified_days"`
	LastLogDate       *time.Time     `gorm:"column:last_log_date;type:date" json:"last_log_date,omitempty"`
	LastVerifiedDate  *time.Time     `gorm:"column:last_verified_date;type:date" json:"last_verified_date,omitempty"`
	CreatedAt         time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Streak) TableName() string { return "streak" }
