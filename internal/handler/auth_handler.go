package handler

import (
	"errors"
	"net/http"

	"github.com/danielforeroj/alwaysonduty/internal/mailer"
	"github.com/danielforeroj/alwaysonduty/internal/middleware"
	"github.com/danielforeroj/alwaysonduty/internal/model"
	"github.com/danielforeroj/alwaysonduty/internal/service"
	"github.com/danielforeroj/alwaysonduty/pkg/database"
	"github.com/danielforeroj/alwaysonduty/pkg/jwtutil"
	"github.com/danielforeroj/alwaysonduty/pkg/logger"
	"github.com/danielforeroj/alwaysonduty/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Signup provisions a tenant and its admin account in one call
func Signup(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Name         string `json:"name"`
		BusinessName string `json:"business_name"`
		Email        string `json:"email"`
		Password     string `json:"password"`
		PlanType     string `json:"plan_type"`
		TrialMode    string `json:"trial_mode"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.BusinessName == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "business_name, email and password are required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	result, err := service.Signup(database.GetDB(), service.SignupInput{
		Name:         req.Name,
		BusinessName: req.BusinessName,
		Email:        req.Email,
		Password:     req.Password,
		PlanType:     req.PlanType,
		TrialMode:    req.TrialMode,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			prometheus.RecordAuthError("email_exists")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		}
		log.Error("signup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create account"})
	}

	prometheus.RecordSignup()
	service.RefreshActiveTenantsGauge(database.GetDB())
	log.Info("tenant signed up",
		zap.String("tenant_id", result.Tenant.ID.String()),
		zap.String("slug", result.Tenant.Slug))

	// Emails are best effort and never block the signup response.
	go func(email, name, business, token string) {
		mailer.SendAccountCreated(email, name, business)
		mailer.SendEmailVerification(email, token)
	}(result.User.Email, req.Name, result.Tenant.Name, result.VerificationToken)

	return c.JSON(http.StatusCreated, echo.Map{
		"token":  result.Token,
		"user":   result.User,
		"tenant": result.Tenant,
	})
}

// Login authenticates a dashboard user
func Login(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	token, tenant, user, err := service.Login(database.GetDB(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			prometheus.RecordAuthError("login_failure")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		log.Error("login failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	prometheus.RecordLogin()
	return c.JSON(http.StatusOK, echo.Map{
		"token":  token,
		"user":   user,
		"tenant": tenant,
	})
}

// Me returns the authenticated user with its tenant and a fresh session
// token, so an open dashboard never runs into expiry.
func Me(c echo.Context) error {
	user := middleware.CurrentUser(c)
	tenant := middleware.CurrentTenant(c)

	token, err := jwtutil.GenerateUserToken(user.ID, tenant.ID, user.Email, user.Role)
	if err != nil {
		logger.FromContext(c).Error("session token refresh failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token":  token,
		"user":   user,
		"tenant": tenant,
	})
}

// VerifyEmail consumes an email verification token
func VerifyEmail(c echo.Context) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}

	if err := service.VerifyEmail(database.GetDB(), req.Token); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
		}
		logger.FromContext(c).Error("email verification failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email verified"})
}

// RequestPasswordReset sends a reset link to tenant users. The response
// is identical whether or not the address exists.
func RequestPasswordReset(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	user, token, err := service.RequestPasswordReset(database.GetDB(), req.Email, model.RoleTenantAdmin)
	if err != nil {
		logger.FromContext(c).Error("password reset request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "request failed"})
	}
	if user != nil {
		go mailer.SendPasswordReset(user.Email, token, false)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "if the address exists, a reset link was sent"})
}

// ResetPassword consumes a reset token and installs the new password
func ResetPassword(c echo.Context) error {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil || req.Token == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token and new_password are required"})
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	if err := service.ResetPassword(database.GetDB(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
		}
		logger.FromContext(c).Error("password reset failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}
