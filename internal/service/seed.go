package service

import (
	"errors"

	"github.com/danielforeroj/alwaysonduty/internal/model"
	"github.com/danielforeroj/alwaysonduty/pkg/config"
	"github.com/danielforeroj/alwaysonduty/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const platformTenantSlug = "onduty"

// EnsureSuperAdmin makes sure the platform tenant and its back-office
// account exist. Safe to run on every boot; it only creates what is
// missing and never touches an existing account's password.
func EnsureSuperAdmin(db *gorm.DB, cfg *config.Config) error {
	log := logger.GetLogger()

	if cfg.App.SuperAdminEmail == "" || cfg.App.SuperAdminPassword == "" {
		log.Warn("super admin credentials not configured, skipping seed")
		return nil
	}
	email := NormalizeEmail(cfg.App.SuperAdminEmail)

	var tenant model.Tenant
	err := db.Where("slug = ?", platformTenantSlug).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tenant = model.Tenant{
			Name:          "OnDuty Platform",
			Slug:          platformTenantSlug,
			PlanType:      "premium",
			BillingStatus: model.BillingStatusActive,
		}
		if err := db.Create(&tenant).Error; err != nil {
			return err
		}
		log.Info("created platform tenant", zap.String("tenant_id", tenant.ID.String()))
	} else if err != nil {
		return err
	}

	var user model.User
	err = db.Where("email = ?", email).First(&user).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.App.SuperAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	name := cfg.App.SuperAdminName
	user = model.User{
		TenantID:       tenant.ID,
		Name:           &name,
		Email:          email,
		HashedPassword: string(hashed),
		Role:           model.RoleSuperAdmin,
		IsActive:       true,
		EmailVerified:  true,
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}
	log.Info("created super admin account", zap.String("email", email))
	return nil
}
