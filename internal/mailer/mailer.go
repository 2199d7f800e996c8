package mailer

import (
	"fmt"
	"time"

	"github.com/danielforeroj/alwaysonduty/pkg/config"
	"github.com/danielforeroj/alwaysonduty/pkg/logger"
	appmetrics "github.com/danielforeroj/alwaysonduty/prometheus"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var (
	client          *resty.Client
	fromEmail       string
	frontendBaseURL string
)

// Initialize configures the Resend client. With no API key the package
// stays in no-op mode and every Send succeeds silently.
func Initialize(cfg *config.Config) {
	fromEmail = cfg.Mail.FromEmail
	frontendBaseURL = cfg.App.FrontendBaseURL

	if cfg.Mail.APIKey == "" || cfg.Mail.FromEmail == "" {
		client = nil
		logger.GetLogger().Warn("mailer disabled, RESEND_API_KEY or RESEND_FROM_EMAIL not set")
		return
	}

	client = resty.New().
		SetBaseURL(cfg.Mail.BaseURL).
		SetTimeout(10 * time.Second).
		SetAuthToken(cfg.Mail.APIKey).
		SetHeader("Content-Type", "application/json")
}

// Enabled reports whether outbound email is configured
func Enabled() bool {
	return client != nil
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Send delivers one email. Email is best effort product-wide: failures
// are logged and counted but never propagated to the caller's request.
func Send(to, subject, html, kind string) {
	log := logger.GetLogger()
	if client == nil {
		log.Debug("mailer disabled, dropping email",
			zap.String("kind", kind), zap.String("to", to))
		return
	}

	var result sendResponse
	resp, err := client.R().
		SetBody(sendRequest{From: fromEmail, To: []string{to}, Subject: subject, HTML: html}).
		SetResult(&result).
		Post("/emails")
	if err != nil {
		appmetrics.RecordEmail(kind, "error")
		log.Error("email send failed", zap.String("kind", kind), zap.String("to", to), zap.Error(err))
		return
	}
	if resp.IsError() {
		appmetrics.RecordEmail(kind, "error")
		log.Error("email send rejected",
			zap.String("kind", kind),
			zap.String("to", to),
			zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()))
		return
	}

	appmetrics.RecordEmail(kind, "sent")
	log.Info("email sent",
		zap.String("kind", kind),
		zap.String("to", to),
		zap.String("message_id", result.ID))
}

// SendAccountCreated welcomes a new tenant admin
func SendAccountCreated(to, name, businessName string) {
	if name == "" {
		name = "there"
	}
	html := fmt.Sprintf(
		"<h2>Welcome to OnDuty!</h2>"+
			"<p>Hi %s,</p>"+
			"<p>Your workspace for <strong>%s</strong> is ready. "+
			"Head to your dashboard to configure your first agent.</p>"+
			"<p><a href=\"%s/dashboard\">Open dashboard</a></p>",
		name, businessName, frontendBaseURL)
	Send(to, "Welcome to OnDuty", html, "account_created")
}

// SendEmailVerification sends the verify-your-address link
func SendEmailVerification(to, token string) {
	link := fmt.Sprintf("%s/verify-email?token=%s", frontendBaseURL, token)
	html := fmt.Sprintf(
		"<p>Confirm your email address to finish setting up your OnDuty account.</p>"+
			"<p><a href=\"%s\">Verify email</a></p>"+
			"<p>This link expires in 48 hours.</p>", link)
	Send(to, "Verify your OnDuty email", html, "email_verification")
}

// SendPasswordReset sends a reset link. Super admin resets land on the
// back-office path instead of the tenant dashboard.
func SendPasswordReset(to, token string, superAdmin bool) {
	path := "/reset-password"
	if superAdmin {
		path = "/super-admin/reset-password"
	}
	link := fmt.Sprintf("%s%s?token=%s", frontendBaseURL, path, token)
	html := fmt.Sprintf(
		"<p>We received a request to reset your OnDuty password.</p>"+
			"<p><a href=\"%s\">Reset password</a></p>"+
			"<p>If you did not request this, you can ignore this email. "+
			"The link expires in 1 hour.</p>", link)
	Send(to, "Reset your OnDuty password", html, "password_reset")
}

// SendEndUserCode delivers the 4-digit chat verification code
func SendEndUserCode(to, businessName, code string) {
	html := fmt.Sprintf(
		"<p>Your verification code for the %s chat is:</p>"+
			"<h1 style=\"letter-spacing:4px\">%s</h1>"+
			"<p>It expires in 15 minutes.</p>", businessName, code)
	Send(to, fmt.Sprintf("Your %s verification code", businessName), html, "end_user_code")
}

// SendPlanSubscribed confirms a paid subscription
func SendPlanSubscribed(to, businessName, planType string) {
	html := fmt.Sprintf(
		"<p>Your <strong>%s</strong> subscription for %s is now active.</p>"+
			"<p><a href=\"%s/dashboard/billing\">Manage billing</a></p>",
		planType, businessName, frontendBaseURL)
	Send(to, "Your OnDuty subscription is active", html, "plan_subscribed")
}

// SendPlanRenewed confirms a successful renewal payment
func SendPlanRenewed(to, businessName, planType string) {
	html := fmt.Sprintf(
		"<p>We received your renewal payment. The <strong>%s</strong> plan "+
			"for %s continues uninterrupted.</p>", planType, businessName)
	Send(to, "OnDuty subscription renewed", html, "plan_renewed")
}

// SendAgentConfigured notifies the admin their agent went live
func SendAgentConfigured(to, agentName string) {
	html := fmt.Sprintf(
		"<p>Your agent <strong>%s</strong> is configured and ready to chat.</p>"+
			"<p><a href=\"%s/dashboard/agents\">Review agents</a></p>",
		agentName, frontendBaseURL)
	Send(to, "Your OnDuty agent is ready", html, "agent_configured")
}
