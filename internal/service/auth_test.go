package service

import (
	"testing"
	"time"

	"github.com/danielforeroj/alwaysonduty/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestSignup_HappyPath(t *testing.T) {
	db := setupDB(t)

	result, err := Signup(db, SignupInput{
		Name:         "Dana",
		BusinessName: "Dana's Bakery",
		Email:        "Dana@Example.com",
		Password:     "supersecret1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.VerificationToken)
	assert.Equal(t, "dana@example.com", result.User.Email)
	assert.Equal(t, model.RoleTenantAdmin, result.User.Role)
	assert.True(t, result.User.IsActive)
	assert.Equal(t, "danas-bakery", result.Tenant.Slug)
	assert.Equal(t, model.BillingStatusTrial, result.Tenant.BillingStatus)
	require.NotNil(t, result.Tenant.TrialEndsAt)

	// Default trial mode expects a card, so the long trial applies.
	expected := time.Now().UTC().Add(TrialDaysWithCard * 24 * time.Hour)
	assert.WithinDuration(t, expected, *result.Tenant.TrialEndsAt, time.Minute)

	// The stored password is a hash, never the plaintext.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(result.User.HashedPassword), []byte("supersecret1")))
}

func TestSignup_NoCardShortTrial(t *testing.T) {
	db := setupDB(t)

	result, err := Signup(db, SignupInput{
		BusinessName: "Quick Shop",
		Email:        "owner@quick.shop",
		Password:     "supersecret1",
		TrialMode:    TrialModeNoCard,
	})
	require.NoError(t, err)

	expected := time.Now().UTC().Add(TrialDaysNoCard * 24 * time.Hour)
	assert.WithinDuration(t, expected, *result.Tenant.TrialEndsAt, time.Minute)
}

func TestSignup_DuplicateEmailLeavesNoOrphanTenant(t *testing.T) {
	db := setupDB(t)

	_, err := Signup(db, SignupInput{
		BusinessName: "First Shop",
		Email:        "owner@example.com",
		Password:     "supersecret1",
	})
	require.NoError(t, err)

	_, err = Signup(db, SignupInput{
		BusinessName: "Second Shop",
		Email:        "owner@example.com",
		Password:     "supersecret1",
	})
	assert.ErrorIs(t, err, ErrEmailExists)

	var tenants int64
	require.NoError(t, db.Model(&model.Tenant{}).Count(&tenants).Error)
	assert.Equal(t, int64(1), tenants)
}

// A concurrent signup can claim the email after the pre-check passes. The
// insert then hits the unique index, and the freshly created tenant must
// be rolled back.
func TestSignup_InsertConflictRollsBackTenant(t *testing.T) {
	db := setupDB(t)

	rivalTenant := &model.Tenant{Name: "Rival Shop", PlanType: "starter"}
	require.NoError(t, CreateTenantWithSlug(db, rivalTenant))

	// Sneak a conflicting user in between the email pre-check and the
	// user insert by hooking the create pipeline.
	injected := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").
		Register("inject_conflicting_user", func(tx *gorm.DB) {
			if injected || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "users" {
				return
			}
			injected = true
			rival := &model.User{
				TenantID:       rivalTenant.ID,
				Email:          "race@example.com",
				HashedPassword: "irrelevant",
				Role:           model.RoleTenantAdmin,
				IsActive:       true,
			}
			tx.Session(&gorm.Session{NewDB: true}).Create(rival)
		}))
	defer db.Callback().Create().Remove("inject_conflicting_user")

	_, err := Signup(db, SignupInput{
		BusinessName: "Late Shop",
		Email:        "race@example.com",
		Password:     "supersecret1",
	})
	assert.ErrorIs(t, err, ErrEmailExists)
	require.True(t, injected)

	// Only the rival's tenant survives; the losing signup left nothing.
	var tenants int64
	require.NoError(t, db.Model(&model.Tenant{}).Count(&tenants).Error)
	assert.Equal(t, int64(1), tenants)

	var orphaned int64
	require.NoError(t, db.Model(&model.Tenant{}).Where("slug = ?", "late-shop").Count(&orphaned).Error)
	assert.Equal(t, int64(0), orphaned)
}

func TestSignup_SpecialPermissionTrialOverride(t *testing.T) {
	db := setupDB(t)

	override := 30
	permissioned := &model.Tenant{
		Name:                  "VIP Partner",
		Slug:                  "vip-partner",
		IsSpecialPermissioned: true,
		TrialDaysOverride:     &override,
	}
	require.NoError(t, db.Create(permissioned).Error)

	result, err := Signup(db, SignupInput{
		BusinessName: "VIP Partner",
		Email:        "vip@example.com",
		Password:     "supersecret1",
	})
	require.NoError(t, err)

	expected := time.Now().UTC().Add(30 * 24 * time.Hour)
	assert.WithinDuration(t, expected, *result.Tenant.TrialEndsAt, time.Minute)
	// The new tenant still gets its own slug next to the permissioned one.
	assert.Equal(t, "vip-partner-2", result.Tenant.Slug)
}

func TestLogin(t *testing.T) {
	db := setupDB(t)

	signup, err := Signup(db, SignupInput{
		BusinessName: "Login Shop",
		Email:        "login@example.com",
		Password:     "supersecret1",
	})
	require.NoError(t, err)

	token, tenant, user, err := Login(db, "login@example.com", "supersecret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, signup.Tenant.ID, tenant.ID)
	assert.NotNil(t, user.LastLogin)

	_, _, _, err = Login(db, "login@example.com", "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = Login(db, "nobody@example.com", "supersecret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_InactiveUser(t *testing.T) {
	db := setupDB(t)

	signup, err := Signup(db, SignupInput{
		BusinessName: "Closed Shop",
		Email:        "closed@example.com",
		Password:     "supersecret1",
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(signup.User).Update("is_active", false).Error)

	_, _, _, err = Login(db, "closed@example.com", "supersecret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyEmail_SingleUse(t *testing.T) {
	db := setupDB(t)

	signup, err := Signup(db, SignupInput{
		BusinessName: "Verify Shop",
		Email:        "verify@example.com",
		Password:     "supersecret1",
	})
	require.NoError(t, err)

	require.NoError(t, VerifyEmail(db, signup.VerificationToken))

	var user model.User
	require.NoError(t, db.First(&user, "id = ?", signup.User.ID).Error)
	assert.True(t, user.EmailVerified)
	assert.NotNil(t, user.EmailVerifiedAt)

	// Second consumption fails.
	assert.ErrorIs(t, VerifyEmail(db, signup.VerificationToken), ErrInvalidToken)
	assert.ErrorIs(t, VerifyEmail(db, "no-such-token"), ErrInvalidToken)
}

func TestVerifyEmail_Expired(t *testing.T) {
	db := setupDB(t)

	signup, err := Signup(db, SignupInput{
		BusinessName: "Expired Shop",
		Email:        "expired@example.com",
		Password:     "supersecret1",
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&model.EmailVerificationToken{}).
		Where("token = ?", signup.VerificationToken).
		Update("expires_at", time.Now().UTC().Add(-time.Hour)).Error)

	assert.ErrorIs(t, VerifyEmail(db, signup.VerificationToken), ErrInvalidToken)
}

func TestPasswordReset_Flow(t *testing.T) {
	db := setupDB(t)

	_, err := Signup(db, SignupInput{
		BusinessName: "Reset Shop",
		Email:        "reset@example.com",
		Password:     "supersecret1",
	})
	require.NoError(t, err)

	user, token, err := RequestPasswordReset(db, "reset@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotEmpty(t, token)

	require.NoError(t, ResetPassword(db, token, "newpassword1"))

	_, _, _, err = Login(db, "reset@example.com", "newpassword1")
	assert.NoError(t, err)
	_, _, _, err = Login(db, "reset@example.com", "supersecret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Token is single-use.
	assert.ErrorIs(t, ResetPassword(db, token, "anotherpass1"), ErrInvalidToken)
}

func TestPasswordReset_RoleRestriction(t *testing.T) {
	db := setupDB(t)

	_, err := Signup(db, SignupInput{
		BusinessName: "Role Shop",
		Email:        "admin@example.com",
		Password:     "supersecret1",
	})
	require.NoError(t, err)

	// A tenant admin does not match the super-admin-only filter, and the
	// caller gets no user and no error so the response stays uniform.
	user, token, err := RequestPasswordReset(db, "admin@example.com", model.RoleSuperAdmin)
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Empty(t, token)

	// Unknown addresses behave the same way.
	user, token, err = RequestPasswordReset(db, "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Empty(t, token)
}
