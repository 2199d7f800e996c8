package service

import (
	"testing"
	"time"

	"github.com/danielforeroj/alwaysonduty/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testTenant(t *testing.T, db *gorm.DB) *model.Tenant {
	t.Helper()
	tenant := &model.Tenant{Name: "Widget Tenant"}
	require.NoError(t, CreateTenantWithSlug(db, tenant))
	return tenant
}

func TestCreateVerification(t *testing.T) {
	db := setupDB(t)
	tenant := testTenant(t, db)

	verification, code, customer, err := CreateVerification(db, tenant.ID, VerificationInput{
		Email:     "Visitor@Example.com",
		FirstName: "Vis",
		LastName:  "Itor",
	})
	require.NoError(t, err)

	assert.Len(t, code, 4)
	assert.NotEqual(t, code, verification.CodeHash)
	assert.Equal(t, hashCode(code), verification.CodeHash)
	assert.WithinDuration(t, time.Now().UTC().Add(CodeTTL), verification.ExpiresAt, time.Minute)

	require.NotNil(t, customer.Email)
	assert.Equal(t, "visitor@example.com", *customer.Email)
	require.NotNil(t, customer.FullName)
	assert.Equal(t, "Vis Itor", *customer.FullName)
}

func TestCreateVerification_ReusesCustomerByEmail(t *testing.T) {
	db := setupDB(t)
	tenant := testTenant(t, db)

	_, _, first, err := CreateVerification(db, tenant.ID, VerificationInput{Email: "repeat@example.com"})
	require.NoError(t, err)

	_, _, second, err := CreateVerification(db, tenant.ID, VerificationInput{
		Email: "repeat@example.com",
		Phone: "+1234567",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.PrimaryPhone)
	assert.Equal(t, "+1234567", *second.PrimaryPhone)
}

func TestValidateCode_ConsumesOnce(t *testing.T) {
	db := setupDB(t)
	tenant := testTenant(t, db)

	verification, code, created, err := CreateVerification(db, tenant.ID, VerificationInput{Email: "once@example.com"})
	require.NoError(t, err)

	customer, err := ValidateCode(db, verification.ID, code)
	require.NoError(t, err)
	assert.Equal(t, created.ID, customer.ID)
	assert.NotNil(t, customer.LastSeenAt)

	// Consumed is terminal, the right code no longer helps.
	_, err = ValidateCode(db, verification.ID, code)
	assert.ErrorIs(t, err, ErrCodeInvalid)
}

func TestValidateCode_WrongCode(t *testing.T) {
	db := setupDB(t)
	tenant := testTenant(t, db)

	verification, code, _, err := CreateVerification(db, tenant.ID, VerificationInput{Email: "wrong@example.com"})
	require.NoError(t, err)

	wrong := "0000"
	if code == "0000" {
		wrong = "0001"
	}
	_, err = ValidateCode(db, verification.ID, wrong)
	assert.ErrorIs(t, err, ErrCodeInvalid)

	// A wrong attempt does not consume the verification.
	_, err = ValidateCode(db, verification.ID, code)
	assert.NoError(t, err)
}

func TestValidateCode_Expired(t *testing.T) {
	db := setupDB(t)
	tenant := testTenant(t, db)

	verification, code, _, err := CreateVerification(db, tenant.ID, VerificationInput{Email: "late@example.com"})
	require.NoError(t, err)

	require.NoError(t, db.Model(verification).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error)

	_, err = ValidateCode(db, verification.ID, code)
	assert.ErrorIs(t, err, ErrCodeInvalid)
}

func TestGenerateCode_Format(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Len(t, code, 4)
		for _, r := range code {
			assert.GreaterOrEqual(t, r, '0')
			assert.LessOrEqual(t, r, '9')
		}
	}
}
