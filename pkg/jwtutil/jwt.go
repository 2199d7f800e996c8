package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/danielforeroj/alwaysonduty/pkg/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// ScopeEndUser marks tokens issued to verified chat-widget visitors.
// They carry a customer id instead of a user id and must never pass the
// dashboard auth middleware.
const ScopeEndUser = "end_user"

// Claims represents the JWT claims issued by this service. The subject is
// the user id for session tokens; verification and end-user tokens carry
// their references in dedicated fields.
type Claims struct {
	Email          string `json:"email,omitempty"`
	TenantID       string `json:"tenant_id,omitempty"`
	Role           string `json:"role,omitempty"`
	Scope          string `json:"scope,omitempty"`
	VerificationID string `json:"verification_id,omitempty"`
	CustomerID     string `json:"customer_id,omitempty"`
	jwt.RegisteredClaims
}

var cfg *config.JWTConfig

// Initialize sets up the package with JWT configuration
func Initialize(jwtConfig *config.JWTConfig) {
	cfg = jwtConfig
}

// GenerateUserToken creates a session token for a dashboard user
func GenerateUserToken(userID, tenantID uuid.UUID, email, role string) (string, error) {
	if cfg == nil {
		return "", errors.New("JWT configuration not provided")
	}

	claims := Claims{
		Email:    email,
		TenantID: tenantID.String(),
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(cfg.ExpirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.SigningKey))
}

// GenerateVerificationToken creates a short-lived token referencing a
// pending end-user verification row. It never contains the code itself.
func GenerateVerificationToken(verificationID uuid.UUID, ttl time.Duration) (string, error) {
	if cfg == nil {
		return "", errors.New("JWT configuration not provided")
	}

	claims := Claims{
		VerificationID: verificationID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.SigningKey))
}

// GenerateEndUserToken creates the scoped token handed out after a
// verification code is confirmed
func GenerateEndUserToken(customerID, tenantID uuid.UUID, ttl time.Duration) (string, error) {
	if cfg == nil {
		return "", errors.New("JWT configuration not provided")
	}

	claims := Claims{
		CustomerID: customerID.String(),
		TenantID:   tenantID.String(),
		Scope:      ScopeEndUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.SigningKey))
}

// ValidateToken validates and parses a token issued by this service
func ValidateToken(tokenString string) (*Claims, error) {
	if cfg == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(cfg.SigningKey), nil
		},
	)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
