package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance bounds how stale a signed webhook timestamp may be
const DefaultTolerance = 5 * time.Minute

var (
	ErrNoSignature      = errors.New("missing stripe signature header")
	ErrBadSignature     = errors.New("webhook signature verification failed")
	ErrSignatureExpired = errors.New("webhook timestamp outside tolerance")
)

// Event is a Stripe webhook envelope. Data.Object stays raw so each
// event type can decode its own payload shape.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// DecodeObject unmarshals the event's data object into the given shape
func (e *Event) DecodeObject(v interface{}) error {
	return json.Unmarshal(e.Data.Object, v)
}

// CheckoutSessionEvent is the object carried by checkout.session.completed
type CheckoutSessionEvent struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// InvoiceEvent is the object carried by invoice.payment_succeeded
type InvoiceEvent struct {
	ID            string `json:"id"`
	Customer      string `json:"customer"`
	Subscription  string `json:"subscription"`
	BillingReason string `json:"billing_reason"`
}

// SubscriptionEvent is the object carried by customer.subscription.*
type SubscriptionEvent struct {
	ID       string            `json:"id"`
	Customer string            `json:"customer"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

// ConstructEvent verifies the Stripe-Signature header against the raw
// payload and decodes the event. The header carries a unix timestamp t
// and one or more v1 signatures, each an HMAC-SHA256 of "t.payload"
// keyed with the endpoint secret.
func ConstructEvent(payload []byte, sigHeader string) (*Event, error) {
	return constructEvent(payload, sigHeader, webhookSecret, DefaultTolerance, time.Now())
}

func constructEvent(payload []byte, sigHeader, secret string, tolerance time.Duration, now time.Time) (*Event, error) {
	if sigHeader == "" {
		return nil, ErrNoSignature
	}
	if secret == "" {
		return nil, ErrNotConfigured
	}

	var timestamp int64
	var signatures [][]byte
	for _, part := range strings.Split(sigHeader, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return nil, ErrBadSignature
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(kv[1])
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return nil, ErrBadSignature
	}

	if diff := now.Sub(time.Unix(timestamp, 0)); diff > tolerance || diff < -tolerance {
		return nil, ErrSignatureExpired
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", timestamp, payload)
	expected := mac.Sum(nil)

	valid := false
	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, ErrBadSignature
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decoding webhook payload: %w", err)
	}
	return &event, nil
}
