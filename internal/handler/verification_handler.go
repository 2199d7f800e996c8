package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/danielforeroj/alwaysonduty/internal/mailer"
	"github.com/danielforeroj/alwaysonduty/internal/model"
	"github.com/danielforeroj/alwaysonduty/internal/service"
	"github.com/danielforeroj/alwaysonduty/pkg/database"
	"github.com/danielforeroj/alwaysonduty/pkg/jwtutil"
	"github.com/danielforeroj/alwaysonduty/pkg/logger"
	"github.com/danielforeroj/alwaysonduty/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	verificationTokenTTL = 20 * time.Minute
	endUserTokenTTL      = 48 * time.Hour
)

// InitiateVerification starts the email code flow for a widget visitor.
// The tenant is resolved from the agent slug embedded in the widget, or
// a tenant slug as fallback.
func InitiateVerification(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		AgentSlug  string `json:"agent_slug"`
		TenantSlug string `json:"tenant_slug"`
		Email      string `json:"email"`
		FirstName  string `json:"first_name"`
		LastName   string `json:"last_name"`
		Phone      string `json:"phone"`
		Source     string `json:"source"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	db := database.GetDB()

	var tenant model.Tenant
	switch {
	case req.AgentSlug != "":
		var agent model.Agent
		err := db.Where("slug = ? AND status <> ?", req.AgentSlug, model.AgentStatusDisabled).
			Order("created_at ASC").First(&agent).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "agent not found"})
			}
			log.Error("agent lookup failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
		if err := db.First(&tenant, "id = ?", agent.TenantID).Error; err != nil {
			log.Error("tenant lookup failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	case req.TenantSlug != "":
		err := db.Where("slug = ?", req.TenantSlug).First(&tenant).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
			}
			log.Error("tenant lookup failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "agent_slug or tenant_slug is required"})
	}

	verification, code, customer, err := service.CreateVerification(db, tenant.ID, service.VerificationInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Source:    req.Source,
	})
	if err != nil {
		log.Error("verification creation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	token, err := jwtutil.GenerateVerificationToken(verification.ID, verificationTokenTTL)
	if err != nil {
		log.Error("verification token generation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	prometheus.RecordVerification("initiated")
	go mailer.SendEndUserCode(service.NormalizeEmail(req.Email), tenant.Name, code)

	return c.JSON(http.StatusOK, echo.Map{
		"verification_token": token,
		"customer_id":        customer.ID,
		"expires_in":         int(service.CodeTTL.Seconds()),
	})
}

// ConfirmVerification exchanges a valid code for an end-user session
// token
func ConfirmVerification(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Token string `json:"verification_token"`
		Code  string `json:"code"`
	}
	if err := c.Bind(&req); err != nil || req.Token == "" || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification_token and code are required"})
	}

	claims, err := jwtutil.ValidateToken(req.Token)
	if err != nil || claims.VerificationID == "" {
		prometheus.RecordVerification("rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid or expired code"})
	}
	verificationID, err := uuid.Parse(claims.VerificationID)
	if err != nil {
		prometheus.RecordVerification("rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid or expired code"})
	}

	customer, err := service.ValidateCode(database.GetDB(), verificationID, req.Code)
	if err != nil {
		if errors.Is(err, service.ErrCodeInvalid) {
			prometheus.RecordVerification("rejected")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid or expired code"})
		}
		log.Error("code validation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	sessionToken, err := jwtutil.GenerateEndUserToken(customer.ID, customer.TenantID, endUserTokenTTL)
	if err != nil {
		log.Error("end-user token generation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	prometheus.RecordVerification("confirmed")
	return c.JSON(http.StatusOK, echo.Map{
		"token":    sessionToken,
		"customer": customer,
	})
}
