package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UUIDKey is embedded by every table; the id is assigned by the application.
type UUIDKey struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`
}

// BeforeCreate fills in a random UUID unless the caller already chose one.
func (k *UUIDKey) BeforeCreate(*gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	return nil
}
