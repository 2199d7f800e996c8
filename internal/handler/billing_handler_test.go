package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielforeroj/alwaysonduty/internal/middleware"
	"github.com/danielforeroj/alwaysonduty/internal/model"
	"github.com/danielforeroj/alwaysonduty/internal/payment"
	"github.com/danielforeroj/alwaysonduty/pkg/config"
	"github.com/danielforeroj/alwaysonduty/pkg/database"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStripe answers every request with a provider error so tests can
// check how handlers surface it.
func fakeStripe(t *testing.T, message string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","message":"` + message + `"}}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func initFakePayment(baseURL string) {
	payment.Initialize(&config.Config{Stripe: config.StripeConfig{
		SecretKey:    "sk_test_key",
		APIBase:      baseURL,
		PriceStarter: "price_starter",
	}})
}

func signupAdmin(t *testing.T, e *echo.Echo, business, email string) string {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/api/auth/signup",
		`{"business_name":"`+business+`","email":"`+email+`","password":"supersecret1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var signup struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signup))
	return signup.Token
}

func TestCreateCheckout_SurfacesProviderError(t *testing.T) {
	e := setupAPI(t)
	e.POST("/api/billing/checkout", CreateCheckout, middleware.AuthMiddleware)

	stripe := fakeStripe(t, "Your card was declined.")
	initFakePayment(stripe.URL)

	token := signupAdmin(t, e, "Card Shop", "cards@example.com")

	rec := doJSON(e, http.MethodPost, "/api/billing/checkout", `{"plan_type":"starter"}`, token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Your card was declined.")
}

func TestCreatePortal_SurfacesProviderError(t *testing.T) {
	e := setupAPI(t)
	e.POST("/api/billing/portal", CreatePortal, middleware.AuthMiddleware)

	stripe := fakeStripe(t, "No such customer: cus_gone")
	initFakePayment(stripe.URL)

	token := signupAdmin(t, e, "Portal Shop", "portal@example.com")

	// Without a Stripe customer the portal is refused before any call out.
	rec := doJSON(e, http.MethodPost, "/api/billing/portal", `{}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.NoError(t, database.GetDB().Model(&model.Tenant{}).
		Where("slug = ?", "portal-shop").
		Update("stripe_customer_id", "cus_gone").Error)

	rec = doJSON(e, http.MethodPost, "/api/billing/portal", `{}`, token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "No such customer: cus_gone")
}
