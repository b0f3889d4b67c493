package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User carries identity only. Authentication happens upstream; the JWT
// subject on each request is the user id.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email     string         `gorm:"column:email;not null;uniqueIndex" json:"email"`
	FullName  string         `gorm:"column:full_name;not null" json:"full_name"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }
