package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EndUserVerification holds the hashed one-time code mailed to a chat
// widget visitor. Pending until consumed or past expiry; both are
// terminal.
type EndUserVerification struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	CustomerID uuid.UUID  `json:"customer_id" gorm:"type:uuid;index;not null"`
	CodeHash   string     `json:"-" gorm:"type:varchar(64);not null"`
	ExpiresAt  time.Time  `json:"expires_at" gorm:"not null"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`

	Customer *Customer `json:"-" gorm:"foreignKey:CustomerID"`
}

func (v *EndUserVerification) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
