package service

import (
	"github.com/danielforeroj/alwaysonduty/internal/model"
	"github.com/danielforeroj/alwaysonduty/pkg/logger"
	"github.com/danielforeroj/alwaysonduty/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RefreshActiveTenantsGauge recounts tenants on a live subscription and
// publishes the result. Called at boot and after billing transitions; a
// failed recount only costs gauge freshness.
func RefreshActiveTenantsGauge(db *gorm.DB) {
	var count int64
	err := db.Model(&model.Tenant{}).
		Where("billing_status IN ?", []string{model.BillingStatusTrial, model.BillingStatusActive}).
		Count(&count).Error
	if err != nil {
		logger.GetLogger().Warn("active tenant recount failed", zap.Error(err))
		return
	}
	prometheus.UpdateActiveTenants(int(count))
}
