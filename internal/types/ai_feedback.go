package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	FeedbackContentRoadmap    = "roadmap"
	FeedbackContentWeeklyGoal = "weekly_goal"
	FeedbackContentNorthStar  = "north_star"

	RatingThumbsUp   = "thumbs_up"
	RatingThumbsDown = "thumbs_down"
)

// AIFeedback is a learner's verdict on a generated artifact. WasRegenerated
// flips false to true exactly once; a second regeneration is a conflict.
type AIFeedback struct {
	ID                   uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID               uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User                 *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ContentType          string         `gorm:"column:content_type;not null" json:"content_type"`
	ContentID            uuid.UUID      `gorm:"type:uuid;column:content_id;not null" json:"content_id"`
	Rating               string         `gorm:"column:rating;not null" json:"rating"`
	FeedbackText         string         `gorm:"column:feedback_text;not null;default:''" json:"feedback_text"`
	WasRegenerated       bool           `gorm:"column:was_regenerated;not null;default:false" json:"was_regenerated"`
	RegeneratedContentID *uuid.UUID     `gorm:"type:uuid;column:regenerated_content_id" json:"regenerated_content_id,omitempty"`
	CreatedAt            time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (AIFeedback) TableName() string { return "ai_feedback" }
