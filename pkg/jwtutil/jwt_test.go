package jwtutil

import (
	"testing"
	"time"

	"github.com/danielforeroj/alwaysonduty/pkg/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})
	m.Run()
}

func TestUserTokenRoundtrip(t *testing.T) {
	userID := uuid.New()
	tenantID := uuid.New()

	token, err := GenerateUserToken(userID, tenantID, "user@example.com", "TENANT_ADMIN")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, tenantID.String(), claims.TenantID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "TENANT_ADMIN", claims.Role)
	assert.Empty(t, claims.Scope)
}

func TestEndUserTokenCarriesScope(t *testing.T) {
	customerID := uuid.New()
	tenantID := uuid.New()

	token, err := GenerateEndUserToken(customerID, tenantID, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, ScopeEndUser, claims.Scope)
	assert.Equal(t, customerID.String(), claims.CustomerID)
	assert.Equal(t, tenantID.String(), claims.TenantID)
	assert.Empty(t, claims.Subject)
}

func TestVerificationTokenExpiry(t *testing.T) {
	verificationID := uuid.New()

	token, err := GenerateVerificationToken(verificationID, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)

	token, err = GenerateVerificationToken(verificationID, 20*time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, verificationID.String(), claims.VerificationID)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := ValidateToken("not-a-token")
	assert.Error(t, err)
}
