package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/danielforeroj/alwaysonduty/internal/mailer"
	"github.com/danielforeroj/alwaysonduty/internal/middleware"
	"github.com/danielforeroj/alwaysonduty/internal/model"
	"github.com/danielforeroj/alwaysonduty/internal/payment"
	"github.com/danielforeroj/alwaysonduty/internal/service"
	"github.com/danielforeroj/alwaysonduty/pkg/database"
	"github.com/danielforeroj/alwaysonduty/pkg/logger"
	"github.com/danielforeroj/alwaysonduty/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var frontendBaseURL string

// SetFrontendBaseURL wires the dashboard URL used for checkout redirects
func SetFrontendBaseURL(url string) {
	frontendBaseURL = url
}

// CreateCheckout starts a Stripe subscription checkout for the tenant
func CreateCheckout(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)
	tenant := middleware.CurrentTenant(c)

	if !payment.Enabled() {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "billing is not configured"})
	}

	var req struct {
		PlanType string `json:"plan_type"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	planType := req.PlanType
	if planType == "" {
		planType = tenant.PlanType
	}

	priceID, err := payment.PriceIDForPlan(planType)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown plan type"})
	}

	db := database.GetDB()

	// Reuse the Stripe customer across checkouts.
	customerID := ""
	if tenant.StripeCustomerID != nil {
		customerID = *tenant.StripeCustomerID
	} else {
		name := tenant.Name
		customer, err := payment.CreateCustomer(user.Email, name, tenant.ID.String())
		if err != nil {
			log.Error("stripe customer creation failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
		customerID = customer.ID
		if err := db.Model(tenant).Update("stripe_customer_id", customerID).Error; err != nil {
			log.Error("failed to store stripe customer id", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store billing reference"})
		}
		tenant.StripeCustomerID = &customerID
	}

	// Card-backed trials run inside Stripe so the card converts on day 16.
	trialDays := 0
	if tenant.BillingStatus == model.BillingStatusTrial &&
		tenant.TrialMode != nil && *tenant.TrialMode == service.TrialModeWithCard {
		trialDays = service.TrialDaysWithCard
	}

	session, err := payment.CreateCheckoutSession(payment.CheckoutInput{
		CustomerID: customerID,
		PriceID:    priceID,
		TenantID:   tenant.ID.String(),
		PlanType:   planType,
		TrialDays:  trialDays,
		SuccessURL: frontendBaseURL + "/dashboard/billing?checkout=success",
		CancelURL:  frontendBaseURL + "/dashboard/billing?checkout=cancelled",
	})
	if err != nil {
		log.Error("checkout session creation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"checkout_url": session.URL})
}

// CreatePortal opens the Stripe billing portal for the tenant
func CreatePortal(c echo.Context) error {
	tenant := middleware.CurrentTenant(c)

	if !payment.Enabled() {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "billing is not configured"})
	}
	if tenant.StripeCustomerID == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no billing account yet"})
	}

	session, err := payment.CreatePortalSession(*tenant.StripeCustomerID, frontendBaseURL+"/dashboard/billing")
	if err != nil {
		logger.FromContext(c).Error("portal session creation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"portal_url": session.URL})
}

// StripeWebhook ingests billing lifecycle events. Unknown event types are
// acknowledged so Stripe stops retrying them.
func StripeWebhook(c echo.Context) error {
	log := logger.FromContext(c)

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable payload"})
	}

	event, err := payment.ConstructEvent(payload, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		log.Warn("webhook rejected", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	}

	prometheus.RecordWebhookEvent(event.Type)
	db := database.GetDB()

	switch event.Type {
	case "checkout.session.completed":
		err = handleCheckoutCompleted(db, log, event)
	case "invoice.payment_succeeded":
		err = handleInvoicePaid(db, log, event)
	case "customer.subscription.deleted":
		err = handleSubscriptionDeleted(db, log, event)
	default:
		log.Debug("ignoring webhook event", zap.String("type", event.Type))
	}
	if err != nil {
		log.Error("webhook processing failed", zap.String("type", event.Type), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "processing failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

func tenantByStripeCustomer(db *gorm.DB, customerID string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := db.Where("stripe_customer_id = ?", customerID).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func tenantAdminEmail(db *gorm.DB, tenantID interface{}) string {
	var user model.User
	err := db.Where("tenant_id = ? AND role = ?", tenantID, model.RoleTenantAdmin).
		Order("created_at ASC").First(&user).Error
	if err != nil {
		return ""
	}
	return user.Email
}

func handleCheckoutCompleted(db *gorm.DB, log *zap.Logger, event *payment.Event) error {
	var session payment.CheckoutSessionEvent
	if err := event.DecodeObject(&session); err != nil {
		return err
	}

	tenant, err := tenantByStripeCustomer(db, session.Customer)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("checkout for unknown customer", zap.String("customer", session.Customer))
			return nil
		}
		return err
	}

	updates := map[string]interface{}{
		"stripe_subscription_id": session.Subscription,
		"billing_status":         model.BillingStatusActive,
	}
	if plan := session.Metadata["plan_type"]; plan != "" {
		updates["plan_type"] = plan
	}
	if err := db.Model(tenant).Updates(updates).Error; err != nil {
		return err
	}
	service.RefreshActiveTenantsGauge(db)

	if email := tenantAdminEmail(db, tenant.ID); email != "" {
		plan := session.Metadata["plan_type"]
		if plan == "" {
			plan = tenant.PlanType
		}
		go mailer.SendPlanSubscribed(email, tenant.Name, plan)
	}
	log.Info("subscription activated",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("subscription", session.Subscription))
	return nil
}

func handleInvoicePaid(db *gorm.DB, log *zap.Logger, event *payment.Event) error {
	var invoice payment.InvoiceEvent
	if err := event.DecodeObject(&invoice); err != nil {
		return err
	}

	tenant, err := tenantByStripeCustomer(db, invoice.Customer)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if err := db.Model(tenant).Update("billing_status", model.BillingStatusActive).Error; err != nil {
		return err
	}
	service.RefreshActiveTenantsGauge(db)

	// Only cycle invoices are renewals; the first invoice is covered by
	// the checkout confirmation email.
	if invoice.BillingReason == "subscription_cycle" {
		if email := tenantAdminEmail(db, tenant.ID); email != "" {
			go mailer.SendPlanRenewed(email, tenant.Name, tenant.PlanType)
		}
	}
	return nil
}

func handleSubscriptionDeleted(db *gorm.DB, log *zap.Logger, event *payment.Event) error {
	var sub payment.SubscriptionEvent
	if err := event.DecodeObject(&sub); err != nil {
		return err
	}

	tenant, err := tenantByStripeCustomer(db, sub.Customer)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	log.Info("subscription cancelled", zap.String("tenant_id", tenant.ID.String()))
	if err := db.Model(tenant).Updates(map[string]interface{}{
		"billing_status":         model.BillingStatusCancelled,
		"stripe_subscription_id": nil,
	}).Error; err != nil {
		return err
	}
	service.RefreshActiveTenantsGauge(db)
	return nil
}
