package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ConversationStatusOpen   = "open"
	ConversationStatusClosed = "closed"

	SenderUser = "user"
	SenderAI   = "ai"
)

// Conversation owns an ordered sequence of messages between a customer
// and an agent
type Conversation struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID  `json:"tenant_id" gorm:"type:uuid;index;not null"`
	CustomerID uuid.UUID  `json:"customer_id" gorm:"type:uuid;index;not null"`
	AgentID    *uuid.UUID `json:"agent_id,omitempty" gorm:"type:uuid;index"`
	Channel    string     `json:"channel" gorm:"type:varchar(50);not null"`
	AgentType  string     `json:"agent_type" gorm:"type:varchar(30);not null;default:'cs'"`
	Status     string     `json:"status" gorm:"type:varchar(20);not null;default:'open'"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`

	Messages []Message `json:"messages,omitempty" gorm:"constraint:OnDelete:CASCADE;foreignKey:ConversationID"`
}

func (c *Conversation) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.StartedAt.IsZero() {
		c.StartedAt = time.Now().UTC()
	}
	return nil
}

// Message is append-only
type Message struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID `json:"conversation_id" gorm:"type:uuid;index;not null"`
	Sender         string    `json:"sender" gorm:"type:varchar(20);not null"`
	Text           string    `json:"text" gorm:"type:text;not null"`
	Meta           *string   `json:"meta,omitempty" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at"`
}

func (m *Message) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
