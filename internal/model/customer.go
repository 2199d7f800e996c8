package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer represents an end-user of a tenant's chat widget, not a
// platform login.
type Customer struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID     uuid.UUID  `json:"tenant_id" gorm:"type:uuid;index;not null"`
	FirstName    *string    `json:"first_name,omitempty" gorm:"type:varchar(100)"`
	LastName     *string    `json:"last_name,omitempty" gorm:"type:varchar(100)"`
	FullName     *string    `json:"full_name,omitempty" gorm:"type:varchar(200)"`
	PrimaryPhone *string    `json:"primary_phone,omitempty" gorm:"type:varchar(50)"`
	Email        *string    `json:"email,omitempty" gorm:"type:varchar(255);index"`
	Source       *string    `json:"source,omitempty" gorm:"type:varchar(50)"`
	LastSeenAt   *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ChannelIdentity uniquely resolves an external chat-session identifier to
// a customer record within a tenant and channel.
type ChannelIdentity struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID `json:"tenant_id" gorm:"type:uuid;not null;uniqueIndex:idx_channel_identity"`
	CustomerID uuid.UUID `json:"customer_id" gorm:"type:uuid;index;not null"`
	Channel    string    `json:"channel" gorm:"type:varchar(50);not null;uniqueIndex:idx_channel_identity"`
	ExternalID string    `json:"external_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_channel_identity"`
	Meta       *string   `json:"meta,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`

	Customer *Customer `json:"-" gorm:"foreignKey:CustomerID"`
}

func (ci *ChannelIdentity) BeforeCreate(*gorm.DB) error {
	if ci.ID == uuid.Nil {
		ci.ID = uuid.New()
	}
	return nil
}
