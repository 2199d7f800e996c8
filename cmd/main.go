package main

import (
	"github.com/danielforeroj/alwaysonduty/internal/handler"
	"github.com/danielforeroj/alwaysonduty/internal/llm"
	"github.com/danielforeroj/alwaysonduty/internal/mailer"
	"github.com/danielforeroj/alwaysonduty/internal/middleware"
	"github.com/danielforeroj/alwaysonduty/internal/model"
	"github.com/danielforeroj/alwaysonduty/internal/payment"
	"github.com/danielforeroj/alwaysonduty/internal/service"
	"github.com/danielforeroj/alwaysonduty/pkg/config"
	"github.com/danielforeroj/alwaysonduty/pkg/database"
	"github.com/danielforeroj/alwaysonduty/pkg/jwtutil"
	"github.com/danielforeroj/alwaysonduty/pkg/logger"
	"github.com/danielforeroj/alwaysonduty/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("onduty-backend")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting OnDuty backend...", cfg.LogFields()...)

	// Initialize database
	if _, err := database.InitDB(&cfg.DB); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(
		&model.Tenant{},
		&model.User{},
		&model.EmailVerificationToken{},
		&model.PasswordResetToken{},
		&model.Customer{},
		&model.ChannelIdentity{},
		&model.EndUserVerification{},
		&model.Conversation{},
		&model.Message{},
		&model.Agent{},
		&model.AgentDocument{},
	); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize integrations
	jwtutil.Initialize(&cfg.JWT)
	mailer.Initialize(cfg)
	llm.Initialize(cfg)
	payment.Initialize(cfg)
	handler.SetFrontendBaseURL(cfg.App.FrontendBaseURL)

	// Seed the platform tenant and back-office account
	if err := service.EnsureSuperAdmin(database.GetDB(), cfg); err != nil {
		log.Fatal("Failed to seed super admin", zap.Error(err))
	}
	service.RefreshActiveTenantsGauge(database.GetDB())

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/", handler.Root)
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	// Authentication
	auth := e.Group("/api/auth")
	auth.POST("/signup", handler.Signup)
	auth.POST("/login", handler.Login)
	auth.POST("/verify-email", handler.VerifyEmail)
	auth.POST("/request-password-reset", handler.RequestPasswordReset)
	auth.POST("/reset-password", handler.ResetPassword)
	auth.GET("/me", handler.Me, middleware.AuthMiddleware)

	// Billing - the webhook is signed by Stripe, not by a user token
	billing := e.Group("/api/billing")
	billing.POST("/webhook", handler.StripeWebhook)
	billing.POST("/checkout", handler.CreateCheckout, middleware.AuthMiddleware)
	billing.POST("/portal", handler.CreatePortal, middleware.AuthMiddleware)

	// Chat widget - anonymous send plus verified-visitor history
	webchat := e.Group("/api/webchat")
	webchat.POST("/send", handler.WebchatSend)
	webchat.GET("/history", handler.WebchatHistory, middleware.EndUserAuthMiddleware)

	// End-user identity gating
	verification := e.Group("/api/end-user-verification")
	verification.POST("/initiate", handler.InitiateVerification)
	verification.POST("/confirm", handler.ConfirmVerification)

	// Dashboard routes - all require a tenant session
	api := e.Group("/api", middleware.AuthMiddleware)

	api.GET("/conversations", handler.ListConversations)
	api.GET("/conversations/:id", handler.GetConversation)
	api.GET("/customers", handler.ListCustomers)
	api.GET("/customers/:id", handler.GetCustomer)
	api.GET("/dashboard/metrics", handler.DashboardMetrics)

	agents := api.Group("/agents")
	agents.GET("", handler.ListAgents)
	agents.POST("", handler.CreateAgent)
	agents.GET("/:id", handler.GetAgent)
	agents.PATCH("/:id", handler.UpdateAgent)
	agents.DELETE("/:id", handler.DeleteAgent)
	agents.POST("/:id/documents", handler.UploadAgentDocument)
	agents.GET("/:id/documents", handler.ListAgentDocuments)
	agents.DELETE("/:id/documents/:document_id", handler.DeleteAgentDocument)

	// Back office
	e.POST("/api/super-admin/request-password-reset", handler.SuperAdminRequestPasswordReset)

	superAdmin := e.Group("/api/super-admin", middleware.AuthMiddleware, middleware.RequireSuperAdmin)
	superAdmin.GET("/overview", handler.SuperAdminOverview)
	superAdmin.GET("/tenants", handler.SuperAdminListTenants)
	superAdmin.POST("/tenants", handler.SuperAdminCreateTenant)
	superAdmin.GET("/tenants/:id", handler.SuperAdminGetTenant)
	superAdmin.PATCH("/tenants/:id", handler.SuperAdminUpdateTenant)
	superAdmin.GET("/users", handler.SuperAdminListUsers)
	superAdmin.POST("/users", handler.SuperAdminCreateUser)
	superAdmin.GET("/users/:id", handler.SuperAdminGetUser)
	superAdmin.PATCH("/users/:id", handler.SuperAdminUpdateUser)
	superAdmin.GET("/chat-users", handler.SuperAdminListChatUsers)
	superAdmin.GET("/chat-users/:id", handler.SuperAdminGetChatUser)
	superAdmin.GET("/agents", handler.SuperAdminListAgents)
	superAdmin.GET("/agents/:id", handler.SuperAdminGetAgent)
	superAdmin.PATCH("/agents/:id", handler.SuperAdminUpdateAgent)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
