package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/danielforeroj/alwaysonduty/internal/middleware"
	"github.com/danielforeroj/alwaysonduty/internal/service"
	"github.com/danielforeroj/alwaysonduty/pkg/database"
	"github.com/danielforeroj/alwaysonduty/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func pagination(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// ListConversations returns a page of the tenant's conversations
func ListConversations(c echo.Context) error {
	tenant := middleware.CurrentTenant(c)
	page, pageSize := pagination(c)

	conversations, err := service.ListConversations(database.GetDB(), tenant.ID, page, pageSize)
	if err != nil {
		logger.FromContext(c).Error("conversation listing failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"conversations": conversations,
		"page":          page,
		"page_size":     pageSize,
	})
}

// GetConversation returns one conversation with its ordered messages
func GetConversation(c echo.Context) error {
	tenant := middleware.CurrentTenant(c)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conversation id"})
	}

	conversation, err := service.GetConversation(database.GetDB(), tenant.ID, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "conversation not found"})
		}
		logger.FromContext(c).Error("conversation lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, conversation)
}
