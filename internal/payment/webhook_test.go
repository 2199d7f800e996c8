package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test_secret"

func signPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestConstructEvent_ValidSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","customer":"cus_1","subscription":"sub_1","metadata":{"plan_type":"growth"}}}}`)
	now := time.Now()

	event, err := constructEvent(payload, signPayload(payload, testSecret, now), testSecret, DefaultTolerance, now)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, "checkout.session.completed", event.Type)

	var session CheckoutSessionEvent
	require.NoError(t, event.DecodeObject(&session))
	assert.Equal(t, "cus_1", session.Customer)
	assert.Equal(t, "sub_1", session.Subscription)
	assert.Equal(t, "growth", session.Metadata["plan_type"])
}

func TestConstructEvent_WrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_2","type":"invoice.payment_succeeded"}`)
	now := time.Now()

	_, err := constructEvent(payload, signPayload(payload, "whsec_other", now), testSecret, DefaultTolerance, now)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestConstructEvent_TamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_3","type":"invoice.payment_succeeded"}`)
	now := time.Now()
	header := signPayload(payload, testSecret, now)

	tampered := []byte(`{"id":"evt_3","type":"customer.subscription.deleted"}`)
	_, err := constructEvent(tampered, header, testSecret, DefaultTolerance, now)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestConstructEvent_StaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_4","type":"invoice.payment_succeeded"}`)
	signedAt := time.Now().Add(-10 * time.Minute)

	_, err := constructEvent(payload, signPayload(payload, testSecret, signedAt), testSecret, DefaultTolerance, time.Now())
	assert.ErrorIs(t, err, ErrSignatureExpired)
}

func TestConstructEvent_MissingHeader(t *testing.T) {
	_, err := constructEvent([]byte(`{}`), "", testSecret, DefaultTolerance, time.Now())
	assert.ErrorIs(t, err, ErrNoSignature)

	_, err = constructEvent([]byte(`{}`), "v1=deadbeef", testSecret, DefaultTolerance, time.Now())
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestConstructEvent_MultipleSignatures(t *testing.T) {
	payload := []byte(`{"id":"evt_5","type":"invoice.payment_succeeded"}`)
	now := time.Now()

	mac := hmac.New(sha256.New, []byte(testSecret))
	fmt.Fprintf(mac, "%d.%s", now.Unix(), payload)
	good := hex.EncodeToString(mac.Sum(nil))

	// Stripe sends multiple v1 entries during secret rotation; one valid
	// signature is enough.
	header := fmt.Sprintf("t=%d,v1=%s,v1=%s", now.Unix(), "00ff00ff", good)
	event, err := constructEvent(payload, header, testSecret, DefaultTolerance, now)
	require.NoError(t, err)
	assert.Equal(t, "evt_5", event.ID)
}
