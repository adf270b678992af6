package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	UUID         string `gorm:"type:varchar(36);uniqueIndex;not null;<-:create"`
	Email        string `gorm:"uniqueIndex;not null"`
	FullName     string `gorm:"not null"`
	Program      string `gorm:"not null"`
	PasswordHash string `gorm:"not null"`

	// Relationships
	Applications []Application `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// BeforeCreate assigns the user's external identifier. It is written
// once and never updated afterwards.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == "" {
		u.UUID = uuid.NewString()
	}
	return nil
}
