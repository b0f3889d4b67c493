package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaterialStatusPending = "pending"
	MaterialStatusIndexed = "indexed"
	MaterialStatusFailed  = "failed"
)

// MaterialFile tracks an uploaded study material through extraction,
// chunking and indexing into the content store.
type MaterialFile struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ResolutionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"resolution_id"`
	Resolution   *Resolution    `gorm:"constraint:OnDelete:CASCADE;foreignKey:ResolutionID;references:ID" json:"resolution,omitempty"`
	OriginalName string         `gorm:"column:original_name;not null" json:"original_name"`
	StorageKey   string         `gorm:"column:storage_key;not null" json:"storage_key"`
	ContentType  string         `gorm:"column:content_type;not null" json:"content_type"`
	Status       string         `gorm:"column:status;not null;default:'pending'" json:"status"`
	ChunkCount   int            `gorm:"column:chunk_count;not null;default:0" json:"chunk_count"`
	CharCount    int            `gorm:"column:char_count;not null;default:0" json:"char_count"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MaterialFile) TableName() string { return "material_file" }
