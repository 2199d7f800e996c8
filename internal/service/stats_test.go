package service

import (
	"fmt"
	"testing"

	"github.com/danielforeroj/alwaysonduty/internal/model"
	"github.com/danielforeroj/alwaysonduty/prometheus"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshActiveTenantsGauge(t *testing.T) {
	db := setupDB(t)

	for i, status := range []string{
		model.BillingStatusTrial,
		model.BillingStatusActive,
		model.BillingStatusCancelled,
		model.BillingStatusPaused,
	} {
		tenant := &model.Tenant{
			Name:          fmt.Sprintf("Shop %d", i),
			PlanType:      "starter",
			BillingStatus: status,
		}
		require.NoError(t, CreateTenantWithSlug(db, tenant))
	}

	RefreshActiveTenantsGauge(db)

	// Only the trialing and active tenants count.
	assert.Equal(t, 2.0, promtest.ToFloat64(prometheus.ActiveTenantsGauge))
}
