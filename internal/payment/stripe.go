package payment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielforeroj/alwaysonduty/pkg/config"
	"github.com/danielforeroj/alwaysonduty/pkg/logger"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const defaultAPIBase = "https://api.stripe.com/v1"

var (
	client        *resty.Client
	webhookSecret string
	prices        map[string]string
)

// ErrNotConfigured is returned by every API call when Stripe keys are
// missing, so billing endpoints can answer 503 instead of panicking.
var ErrNotConfigured = errors.New("stripe is not configured")

// Initialize configures the Stripe REST client
func Initialize(cfg *config.Config) {
	webhookSecret = cfg.Stripe.WebhookSecret
	prices = map[string]string{
		"starter": cfg.Stripe.PriceStarter,
		"basic":   cfg.Stripe.PriceStarter,
		"growth":  cfg.Stripe.PriceGrowth,
		"premium": cfg.Stripe.PricePremium,
	}

	if cfg.Stripe.SecretKey == "" {
		client = nil
		logger.GetLogger().Warn("stripe disabled, STRIPE_SECRET_KEY not set")
		return
	}

	base := cfg.Stripe.APIBase
	if base == "" {
		base = defaultAPIBase
	}
	client = resty.New().
		SetBaseURL(base).
		SetTimeout(20 * time.Second).
		SetAuthToken(cfg.Stripe.SecretKey).
		SetHeader("Content-Type", "application/x-www-form-urlencoded")
}

// Enabled reports whether the Stripe client is usable
func Enabled() bool {
	return client != nil
}

// PriceIDForPlan maps a plan type to its configured Stripe price
func PriceIDForPlan(planType string) (string, error) {
	price := prices[strings.ToLower(planType)]
	if price == "" {
		return "", fmt.Errorf("no stripe price configured for plan %q", planType)
	}
	return price, nil
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func post(path string, form map[string]string, result interface{}) error {
	if client == nil {
		return ErrNotConfigured
	}

	var apiErr stripeError
	resp, err := client.R().
		SetFormData(form).
		SetResult(result).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		logger.GetLogger().Error("stripe request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()),
			zap.String("error_type", apiErr.Error.Type),
			zap.String("error_message", apiErr.Error.Message))
		if apiErr.Error.Message != "" {
			return fmt.Errorf("stripe: %s", apiErr.Error.Message)
		}
		return fmt.Errorf("stripe: %s", resp.Status())
	}
	return nil
}

// Customer is the subset of the Stripe customer object we read back
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CreateCustomer registers the tenant admin as a Stripe customer
func CreateCustomer(email, name, tenantID string) (*Customer, error) {
	var customer Customer
	err := post("/customers", map[string]string{
		"email":               email,
		"name":                name,
		"metadata[tenant_id]": tenantID,
	}, &customer)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// CheckoutSession is the subset of the checkout session object we use
type CheckoutSession struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Customer string `json:"customer"`
}

// CheckoutInput describes the subscription checkout to create
type CheckoutInput struct {
	CustomerID string
	PriceID    string
	TenantID   string
	PlanType   string
	TrialDays  int
	SuccessURL string
	CancelURL  string
}

// CreateCheckoutSession starts a subscription checkout. TrialDays above
// zero puts the subscription into a Stripe-managed trial.
func CreateCheckoutSession(in CheckoutInput) (*CheckoutSession, error) {
	form := map[string]string{
		"mode":                                   "subscription",
		"customer":                               in.CustomerID,
		"line_items[0][price]":                   in.PriceID,
		"line_items[0][quantity]":                "1",
		"success_url":                            in.SuccessURL,
		"cancel_url":                             in.CancelURL,
		"metadata[tenant_id]":                    in.TenantID,
		"metadata[plan_type]":                    in.PlanType,
		"subscription_data[metadata][tenant_id]": in.TenantID,
	}
	if in.TrialDays > 0 {
		form["subscription_data[trial_period_days]"] = fmt.Sprintf("%d", in.TrialDays)
	}

	var session CheckoutSession
	if err := post("/checkout/sessions", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// PortalSession is the billing portal session object
type PortalSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreatePortalSession opens the Stripe-hosted billing portal for the
// customer
func CreatePortalSession(customerID, returnURL string) (*PortalSession, error) {
	var session PortalSession
	err := post("/billing_portal/sessions", map[string]string{
		"customer":   customerID,
		"return_url": returnURL,
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}
