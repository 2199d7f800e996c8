package service

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/danielforeroj/alwaysonduty/internal/model"
	"github.com/danielforeroj/alwaysonduty/pkg/jwtutil"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Trial lengths in days. A card collected up front buys the longer trial.
const (
	TrialDaysWithCard = 15
	TrialDaysNoCard   = 3

	TrialModeWithCard = "with_card"
	TrialModeNoCard   = "no_card"

	emailVerificationTTL = 48 * time.Hour
	passwordResetTTL     = 1 * time.Hour
)

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// NormalizeEmail lowercases and trims an address; the users.email unique
// index holds normalized values only.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// RandomPassword returns an unguessable temporary password for accounts
// provisioned by the back office. Holders are expected to reset it via
// the invite link before first login.
func RandomPassword() (string, error) {
	return randomToken()
}

// SignupInput carries the signup form
type SignupInput struct {
	Name         string
	BusinessName string
	Email        string
	Password     string
	PlanType     string
	TrialMode    string
}

// SignupResult is everything the handler needs to answer and to queue the
// welcome/verification emails.
type SignupResult struct {
	Token             string
	Tenant            *model.Tenant
	User              *model.User
	VerificationToken string
}

// Signup provisions a tenant and its first admin user. If the user insert
// hits the email uniqueness constraint the freshly created tenant is
// removed again so no orphan tenant survives.
func Signup(db *gorm.DB, in SignupInput) (*SignupResult, error) {
	email := NormalizeEmail(in.Email)

	var existing model.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	trialMode := in.TrialMode
	if trialMode == "" {
		trialMode = TrialModeWithCard
	}
	trialDays := TrialDaysNoCard
	if trialMode == TrialModeWithCard {
		trialDays = TrialDaysWithCard
	}

	// A special-permission tenant sharing the computed slug carries an
	// admin-configured trial override.
	if slug := Slugify(in.BusinessName); slug != "" {
		var permissioned model.Tenant
		err := db.Where("slug = ? AND is_special_permissioned = ?", slug, true).First(&permissioned).Error
		if err == nil && permissioned.TrialDaysOverride != nil {
			trialDays = *permissioned.TrialDaysOverride
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	planType := in.PlanType
	if planType == "" {
		planType = "starter"
	}
	trialEndsAt := time.Now().UTC().Add(time.Duration(trialDays) * 24 * time.Hour)

	tenant := &model.Tenant{
		Name:          in.BusinessName,
		PlanType:      planType,
		BillingStatus: model.BillingStatusTrial,
		TrialMode:     &trialMode,
		TrialEndsAt:   &trialEndsAt,
	}
	if err := CreateTenantWithSlug(db, tenant); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var name *string
	if in.Name != "" {
		name = &in.Name
	}
	user := &model.User{
		TenantID:       tenant.ID,
		Name:           name,
		Email:          email,
		HashedPassword: string(hashed),
		Role:           model.RoleTenantAdmin,
		IsActive:       true,
	}
	if err := db.Create(user).Error; err != nil {
		// Roll the tenant back so the failed signup leaves nothing behind.
		db.Delete(tenant)
		if IsDuplicateKey(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	verification, err := CreateEmailVerificationToken(db, user)
	if err != nil {
		return nil, err
	}

	token, err := jwtutil.GenerateUserToken(user.ID, tenant.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	return &SignupResult{
		Token:             token,
		Tenant:            tenant,
		User:              user,
		VerificationToken: verification.Token,
	}, nil
}

// Login authenticates a user and refreshes the last-login timestamp
func Login(db *gorm.DB, email, password string) (string, *model.Tenant, *model.User, error) {
	var user model.User
	err := db.Where("email = ? AND is_active = ?", NormalizeEmail(email), true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, nil, ErrInvalidCredentials
		}
		return "", nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return "", nil, nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := db.Model(&user).Update("last_login", now).Error; err != nil {
		return "", nil, nil, err
	}
	user.LastLogin = &now

	var tenant model.Tenant
	if err := db.First(&tenant, "id = ?", user.TenantID).Error; err != nil {
		return "", nil, nil, err
	}

	token, err := jwtutil.GenerateUserToken(user.ID, tenant.ID, user.Email, user.Role)
	if err != nil {
		return "", nil, nil, err
	}
	return token, &tenant, &user, nil
}

// CreateEmailVerificationToken issues a fresh single-use token for the
// user
func CreateEmailVerificationToken(db *gorm.DB, user *model.User) (*model.EmailVerificationToken, error) {
	raw, err := randomToken()
	if err != nil {
		return nil, err
	}
	token := &model.EmailVerificationToken{
		UserID:    user.ID,
		Token:     raw,
		ExpiresAt: time.Now().UTC().Add(emailVerificationTTL),
	}
	if err := db.Create(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}

// VerifyEmail consumes a verification token exactly once
func VerifyEmail(db *gorm.DB, raw string) error {
	var token model.EmailVerificationToken
	err := db.Where("token = ? AND used = ?", raw, false).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if time.Now().UTC().After(token.ExpiresAt) {
		return ErrInvalidToken
	}

	now := time.Now().UTC()
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&token).Update("used", true).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).Where("id = ?", token.UserID).
			Updates(map[string]interface{}{"email_verified": true, "email_verified_at": now}).Error
	})
}

// RequestPasswordReset creates a reset token for the user behind the
// address. When allowedRoles is non-empty, users outside those roles are
// skipped. This keeps super-admin resets on their own endpoint.
// A missing user is not an error so handlers can answer uniformly.
func RequestPasswordReset(db *gorm.DB, email string, allowedRoles ...string) (*model.User, string, error) {
	var user model.User
	err := db.Where("email = ? AND is_active = ?", NormalizeEmail(email), true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", nil
		}
		return nil, "", err
	}

	if len(allowedRoles) > 0 {
		allowed := false
		for _, role := range allowedRoles {
			if user.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, "", nil
		}
	}

	raw, err := randomToken()
	if err != nil {
		return nil, "", err
	}
	token := &model.PasswordResetToken{
		UserID:    user.ID,
		Token:     raw,
		ExpiresAt: time.Now().UTC().Add(passwordResetTTL),
	}
	if err := db.Create(token).Error; err != nil {
		return nil, "", err
	}
	return &user, raw, nil
}

// ResetPassword consumes a reset token and installs the new password hash
func ResetPassword(db *gorm.DB, raw, newPassword string) error {
	var token model.PasswordResetToken
	err := db.Where("token = ? AND used = ?", raw, false).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if time.Now().UTC().After(token.ExpiresAt) {
		return ErrInvalidToken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&token).Update("used", true).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).Where("id = ?", token.UserID).
			Update("hashed_password", string(hashed)).Error
	})
}
