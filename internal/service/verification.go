package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/danielforeroj/alwaysonduty/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CodeTTL bounds how long an issued verification code stays valid
const CodeTTL = 15 * time.Minute

// ErrCodeInvalid covers every rejection: unknown verification, consumed,
// expired, or hash mismatch. Callers must not leak which one it was.
var ErrCodeInvalid = errors.New("invalid or expired code")

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// generateCode draws a zero-padded 4-digit code from a cryptographically
// random source
func generateCode() (string, error) {
	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", binary.BigEndian.Uint16(buf[:])%10000), nil
}

// VerificationInput carries the contact details submitted by the widget
// visitor
type VerificationInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Source    string
}

// CreateVerification upserts the customer from the submitted contact
// details and issues a fresh verification row. Only the code hash is
// stored; the plaintext code is returned once for the outbound email.
func CreateVerification(db *gorm.DB, tenantID uuid.UUID, in VerificationInput) (*model.EndUserVerification, string, *model.Customer, error) {
	customer, err := UpsertCustomerByEmail(db, tenantID, in)
	if err != nil {
		return nil, "", nil, err
	}

	code, err := generateCode()
	if err != nil {
		return nil, "", nil, err
	}

	verification := &model.EndUserVerification{
		CustomerID: customer.ID,
		CodeHash:   hashCode(code),
		ExpiresAt:  time.Now().UTC().Add(CodeTTL),
	}
	if err := db.Create(verification).Error; err != nil {
		return nil, "", nil, err
	}

	return verification, code, customer, nil
}

// ValidateCode consumes a pending verification. It succeeds at most once
// per row: consumed and expired are both terminal.
func ValidateCode(db *gorm.DB, verificationID uuid.UUID, code string) (*model.Customer, error) {
	var verification model.EndUserVerification
	err := db.First(&verification, "id = ?", verificationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeInvalid
		}
		return nil, err
	}

	if verification.ConsumedAt != nil || time.Now().UTC().After(verification.ExpiresAt) {
		return nil, ErrCodeInvalid
	}
	if verification.CodeHash != hashCode(code) {
		return nil, ErrCodeInvalid
	}

	now := time.Now().UTC()
	if err := db.Model(&verification).Update("consumed_at", now).Error; err != nil {
		return nil, err
	}

	var customer model.Customer
	if err := db.First(&customer, "id = ?", verification.CustomerID).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&customer).Update("last_seen_at", now).Error; err != nil {
		return nil, err
	}
	customer.LastSeenAt = &now
	return &customer, nil
}
