package service

import (
	"github.com/danielforeroj/alwaysonduty/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateConversation opens a new conversation thread for the customer
func CreateConversation(db *gorm.DB, tenantID, customerID uuid.UUID, agentID *uuid.UUID, channel, agentType string) (*model.Conversation, error) {
	if agentType == "" {
		agentType = "cs"
	}
	conversation := &model.Conversation{
		TenantID:   tenantID,
		CustomerID: customerID,
		AgentID:    agentID,
		Channel:    channel,
		AgentType:  agentType,
		Status:     model.ConversationStatusOpen,
	}
	if err := db.Create(conversation).Error; err != nil {
		return nil, err
	}
	return conversation, nil
}

// AddMessage appends a message to a conversation
func AddMessage(db *gorm.DB, conversationID uuid.UUID, sender, text string, meta *string) (*model.Message, error) {
	message := &model.Message{
		ConversationID: conversationID,
		Sender:         sender,
		Text:           text,
		Meta:           meta,
	}
	if err := db.Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

// ListConversations returns a page of the tenant's conversations, newest
// first
func ListConversations(db *gorm.DB, tenantID uuid.UUID, page, pageSize int) ([]model.Conversation, error) {
	var conversations []model.Conversation
	err := db.Where("tenant_id = ?", tenantID).
		Order("started_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&conversations).Error
	return conversations, err
}

// GetConversation fetches a conversation with its ordered messages,
// scoped to the tenant
func GetConversation(db *gorm.DB, tenantID, conversationID uuid.UUID) (*model.Conversation, error) {
	var conversation model.Conversation
	err := db.Preload("Messages", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("created_at ASC")
	}).Where("tenant_id = ? AND id = ?", tenantID, conversationID).First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}
