package handler

import (
	"net/http"
	"testing"

	"github.com/danielforeroj/alwaysonduty/internal/middleware"
	"github.com/danielforeroj/alwaysonduty/internal/model"
	"github.com/danielforeroj/alwaysonduty/internal/service"
	"github.com/danielforeroj/alwaysonduty/pkg/database"
	"github.com/danielforeroj/alwaysonduty/pkg/jwtutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func createSuperAdmin(t *testing.T, db *gorm.DB, tenantID uuid.UUID, email string) (*model.User, string) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("supersecret1"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{
		TenantID:       tenantID,
		Email:          email,
		HashedPassword: string(hashed),
		Role:           model.RoleSuperAdmin,
		IsActive:       true,
	}
	require.NoError(t, db.Create(user).Error)

	token, err := jwtutil.GenerateUserToken(user.ID, tenantID, user.Email, user.Role)
	require.NoError(t, err)
	return user, token
}

func TestSuperAdminUpdateUser_LastSuperAdminGuard(t *testing.T) {
	e := setupAPI(t)
	e.PATCH("/api/super-admin/users/:id", SuperAdminUpdateUser,
		middleware.AuthMiddleware, middleware.RequireSuperAdmin)

	db := database.GetDB()
	platform := &model.Tenant{Name: "Platform", PlanType: "starter"}
	require.NoError(t, service.CreateTenantWithSlug(db, platform))

	root, rootToken := createSuperAdmin(t, db, platform.ID, "root@example.com")

	// Demoting the only active super admin is refused.
	rec := doJSON(e, http.MethodPatch, "/api/super-admin/users/"+root.ID.String(),
		`{"role":"TENANT_ADMIN"}`, rootToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "last super admin")

	// So is deactivating them.
	rec = doJSON(e, http.MethodPatch, "/api/super-admin/users/"+root.ID.String(),
		`{"is_active":false}`, rootToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var fresh model.User
	require.NoError(t, db.First(&fresh, "id = ?", root.ID).Error)
	assert.Equal(t, model.RoleSuperAdmin, fresh.Role)
	assert.True(t, fresh.IsActive)

	// With a second active super admin the demotion goes through.
	backup, _ := createSuperAdmin(t, db, platform.ID, "backup@example.com")
	rec = doJSON(e, http.MethodPatch, "/api/super-admin/users/"+backup.ID.String(),
		`{"role":"TENANT_ADMIN"}`, rootToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var demoted model.User
	require.NoError(t, db.First(&demoted, "id = ?", backup.ID).Error)
	assert.Equal(t, model.RoleTenantAdmin, demoted.Role)
}
