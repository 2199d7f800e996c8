package model

import (
	"time"

	"github.com/google/uuid"
)

// EmailVerificationToken is a single-use, expiring token mailed out after
// signup.
type EmailVerificationToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;index;not null"`
	Token     string    `json:"-" gorm:"type:varchar(64);uniqueIndex;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Used      bool      `json:"used" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`

	User *User `json:"-" gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID"`
}

// PasswordResetToken shares the same single-use shape
type PasswordResetToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;index;not null"`
	Token     string    `json:"-" gorm:"type:varchar(64);uniqueIndex;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Used      bool      `json:"used" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`

	User *User `json:"-" gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID"`
}
