package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// Document represents one uploaded PDF owned by a single user.
// Learning: KSUID primary keys are time-ordered, so sorting by ID is
// sorting by upload time (no extra created_at index needed).
type Document struct {
	ID           string    `json:"id" gorm:"type:char(27);primaryKey"`
	OwnerID      string    `json:"owner_id" gorm:"type:varchar(64);not null;index"`
	OriginalName string    `json:"original_name" gorm:"type:varchar(255);not null"`
	StoragePath  string    `json:"storage_path" gorm:"type:text;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate hook generates KSUID before inserting
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = ksuid.New().String()
	}
	return nil
}
