package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Billing statuses a tenant moves through. Tenants are never hard-deleted;
// cancellation is a billing status.
const (
	BillingStatusTrial     = "trial"
	BillingStatusActive    = "active"
	BillingStatusPaused    = "paused"
	BillingStatusCancelled = "cancelled"
)

// Tenant represents a business customer of the platform. It owns users,
// agents, customers and conversations.
type Tenant struct {
	ID                   uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name                 string     `json:"name" gorm:"type:varchar(100);not null"`
	Slug                 string     `json:"slug" gorm:"type:varchar(120);uniqueIndex;not null"`
	PlanType             string     `json:"plan_type" gorm:"type:varchar(50);not null;default:'basic'"`
	StripeCustomerID     *string    `json:"stripe_customer_id,omitempty" gorm:"type:varchar(255)"`
	StripeSubscriptionID *string    `json:"stripe_subscription_id,omitempty" gorm:"type:varchar(255)"`
	BillingStatus        string     `json:"billing_status" gorm:"type:varchar(20);not null;default:'trial'"`
	TrialMode            *string    `json:"trial_mode,omitempty" gorm:"type:varchar(20)"`
	TrialEndsAt          *time.Time `json:"trial_ends_at,omitempty"`

	// Admin-configured overrides for special-permission tenants.
	IsSpecialPermissioned bool  `json:"is_special_permissioned" gorm:"not null;default:false"`
	TrialDaysOverride     *int  `json:"trial_days_override,omitempty"`
	CardRequired          *bool `json:"card_required,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Tenant) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
