package handler

import (
	"errors"
	"net/http"

	"github.com/danielforeroj/alwaysonduty/internal/llm"
	"github.com/danielforeroj/alwaysonduty/internal/middleware"
	"github.com/danielforeroj/alwaysonduty/internal/model"
	"github.com/danielforeroj/alwaysonduty/internal/service"
	"github.com/danielforeroj/alwaysonduty/pkg/database"
	"github.com/danielforeroj/alwaysonduty/pkg/logger"
	"github.com/danielforeroj/alwaysonduty/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const chatHistoryWindow = 20

// WebchatSend ingests a widget message and answers with the agent reply.
// The widget is anonymous: the tenant comes from its slug and the visitor
// from an opaque session id.
func WebchatSend(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		TenantSlug     string `json:"tenant_slug"`
		SessionID      string `json:"session_id"`
		Message        string `json:"message"`
		ConversationID string `json:"conversation_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.TenantSlug == "" || req.SessionID == "" || req.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_slug, session_id and message are required"})
	}

	db := database.GetDB()

	var tenant model.Tenant
	if err := db.Where("slug = ?", req.TenantSlug).First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		log.Error("tenant lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	customer, err := service.ResolveCustomer(db, tenant.ID, "webchat", req.SessionID)
	if err != nil {
		log.Error("customer resolution failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	// Active agent drives the prompt and model; without one the chat
	// still works on the fallback reply.
	var agent model.Agent
	var agentID *uuid.UUID
	agentErr := db.Where("tenant_id = ? AND status = ?", tenant.ID, model.AgentStatusActive).
		Order("created_at ASC").First(&agent).Error
	if agentErr == nil {
		agentID = &agent.ID
	}

	var conversation *model.Conversation
	if req.ConversationID != "" {
		conversationID, err := uuid.Parse(req.ConversationID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conversation_id"})
		}
		existing, err := service.GetConversation(db, tenant.ID, conversationID)
		if err != nil || existing.CustomerID != customer.ID {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "conversation not found"})
		}
		conversation = existing
	} else {
		agentType := ""
		if agentErr == nil {
			agentType = agent.AgentType
		}
		conversation, err = service.CreateConversation(db, tenant.ID, customer.ID, agentID, "webchat", agentType)
		if err != nil {
			log.Error("conversation creation failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}

	if _, err := service.AddMessage(db, conversation.ID, model.SenderUser, req.Message, nil); err != nil {
		log.Error("failed to store user message", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	prometheus.RecordChatMessage(model.SenderUser)

	reply := llm.FallbackReply
	if agentErr == nil {
		history := buildHistory(db, conversation.ID)
		done := prometheus.TrackLLMCompletion()
		reply = llm.GenerateReply(service.BuildAgentSystemPrompt(&agent), agent.ModelName, history)
		done()
	} else {
		prometheus.RecordLLMFallback()
	}

	if _, err := service.AddMessage(db, conversation.ID, model.SenderAI, reply, nil); err != nil {
		log.Error("failed to store ai message", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	prometheus.RecordChatMessage(model.SenderAI)

	return c.JSON(http.StatusOK, echo.Map{
		"reply":           reply,
		"conversation_id": conversation.ID,
		"customer_id":     customer.ID,
	})
}

// buildHistory loads the newest turns of the conversation in chat order,
// user message included. Errors degrade to an empty history.
func buildHistory(db *gorm.DB, conversationID uuid.UUID) []llm.Message {
	var messages []model.Message
	err := db.Where("conversation_id = ?", conversationID).
		Order("created_at DESC").Limit(chatHistoryWindow).Find(&messages).Error
	if err != nil {
		return nil
	}

	history := make([]llm.Message, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		role := "user"
		if messages[i].Sender == model.SenderAI {
			role = "assistant"
		}
		history = append(history, llm.Message{Role: role, Content: messages[i].Text})
	}
	return history
}

// WebchatHistory lists the verified visitor's conversations with their
// messages. Requires an end-user scoped token.
func WebchatHistory(c echo.Context) error {
	customerID, tenantID, ok := middleware.EndUserIDs(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	var conversations []model.Conversation
	err := database.GetDB().
		Preload("Messages", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC") }).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order("started_at DESC").Limit(50).
		Find(&conversations).Error
	if err != nil {
		logger.FromContext(c).Error("history lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"conversations": conversations})
}
