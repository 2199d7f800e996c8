package handler

import (
	"net/http"
	"time"

	"github.com/danielforeroj/alwaysonduty/internal/middleware"
	"github.com/danielforeroj/alwaysonduty/internal/model"
	"github.com/danielforeroj/alwaysonduty/internal/service"
	"github.com/danielforeroj/alwaysonduty/pkg/database"
	"github.com/danielforeroj/alwaysonduty/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// DashboardMetrics aggregates plan limits, current usage, a 30-day
// conversation timeseries and the per-channel breakdown for the tenant.
func DashboardMetrics(c echo.Context) error {
	log := logger.FromContext(c)
	tenant := middleware.CurrentTenant(c)
	db := database.GetDB()

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var monthConversations int64
	if err := db.Model(&model.Conversation{}).
		Where("tenant_id = ? AND started_at >= ?", tenant.ID, monthStart).
		Count(&monthConversations).Error; err != nil {
		log.Error("conversation count failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	var monthMessages int64
	if err := db.Model(&model.Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("conversations.tenant_id = ? AND messages.created_at >= ?", tenant.ID, monthStart).
		Count(&monthMessages).Error; err != nil {
		log.Error("message count failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	var totalCustomers int64
	if err := db.Model(&model.Customer{}).
		Where("tenant_id = ?", tenant.ID).Count(&totalCustomers).Error; err != nil {
		log.Error("customer count failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	var connectedChannels int64
	if err := db.Model(&model.ChannelIdentity{}).
		Where("tenant_id = ?", tenant.ID).
		Distinct("channel").Count(&connectedChannels).Error; err != nil {
		log.Error("channel count failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	var seats int64
	if err := db.Model(&model.User{}).
		Where("tenant_id = ? AND is_active = ?", tenant.ID, true).Count(&seats).Error; err != nil {
		log.Error("seat count failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	// The timeseries and channel breakdown are bucketed in Go so the
	// query stays portable across postgres and sqlite.
	since := now.AddDate(0, 0, -30)
	var recent []model.Conversation
	if err := db.Select("started_at", "channel").
		Where("tenant_id = ? AND started_at >= ?", tenant.ID, since).
		Find(&recent).Error; err != nil {
		log.Error("timeseries query failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	byDay := map[string]int{}
	byChannel := map[string]int{}
	for _, conversation := range recent {
		byDay[conversation.StartedAt.UTC().Format("2006-01-02")]++
		byChannel[conversation.Channel]++
	}

	type dayPoint struct {
		Date          string `json:"date"`
		Conversations int    `json:"conversations"`
	}
	timeseries := make([]dayPoint, 0, 31)
	for d := 0; d <= 30; d++ {
		day := since.AddDate(0, 0, d).Format("2006-01-02")
		timeseries = append(timeseries, dayPoint{Date: day, Conversations: byDay[day]})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"plan": echo.Map{
			"plan_type":      tenant.PlanType,
			"billing_status": tenant.BillingStatus,
			"trial_ends_at":  tenant.TrialEndsAt,
			"limits":         service.GetPlanLimits(tenant.PlanType),
		},
		"usage": echo.Map{
			"month_conversations": monthConversations,
			"month_messages":      monthMessages,
			"customers":           totalCustomers,
			"connected_channels":  connectedChannels,
			"seats":               seats,
		},
		"timeseries": timeseries,
		"by_channel": byChannel,
	})
}
