package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Signup counter
	SignupCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "onduty_signups_total",
			Help: "Total number of tenant signups",
		},
	)

	// Login counter
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "onduty_logins_total",
			Help: "Total number of successful logins",
		},
	)

	// Chat message counter by sender
	ChatMessageCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onduty_chat_messages_total",
			Help: "Total number of chat messages by sender",
		},
		[]string{"sender"}, // sender is "user" or "ai"
	)

	// LLM fallback counter
	LLMFallbackCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "onduty_llm_fallbacks_total",
			Help: "Total number of chat replies served from the fallback response",
		},
	)

	// Billing webhook counter by event type
	WebhookEventCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onduty_billing_webhook_events_total",
			Help: "Total number of billing webhook events by type",
		},
		[]string{"type"},
	)

	// Outbound email counter by kind and result
	EmailCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onduty_emails_total",
			Help: "Total number of outbound emails by kind and result",
		},
		[]string{"kind", "result"},
	)

	// End-user verification counter by operation
	VerificationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onduty_verifications_total",
			Help: "Total number of end-user verification operations",
		},
		[]string{"operation"}, // operation can be "initiated", "confirmed", "rejected"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onduty_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onduty_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "login_failure", "invalid_token", "inactive_user" etc.
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "onduty_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// LLM completion duration
	LLMDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "onduty_llm_completion_duration_seconds",
			Help:    "Duration of chat-completion calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Gauge metrics
var (
	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "onduty_info",
			Help: "Information about the backend service",
		},
		[]string{"version"},
	)

	// Active tenants
	ActiveTenantsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "onduty_active_tenants",
			Help: "Number of tenants with an active or trialing subscription",
		},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(SignupCounter)
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(ChatMessageCounter)
	prometheus.MustRegister(LLMFallbackCounter)
	prometheus.MustRegister(WebhookEventCounter)
	prometheus.MustRegister(EmailCounter)
	prometheus.MustRegister(VerificationCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(LLMDuration)

	// Register gauges
	prometheus.MustRegister(InfoGauge)
	prometheus.MustRegister(ActiveTenantsGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			// Record metrics
			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// RecordSignup records a completed tenant signup
func RecordSignup() {
	SignupCounter.Inc()
}

// RecordLogin records a successful login
func RecordLogin() {
	LoginCounter.Inc()
}

// RecordChatMessage records a stored chat message by sender
func RecordChatMessage(sender string) {
	ChatMessageCounter.With(prometheus.Labels{"sender": sender}).Inc()
}

// RecordLLMFallback records a reply served from the fallback response
func RecordLLMFallback() {
	LLMFallbackCounter.Inc()
}

// RecordWebhookEvent records a billing webhook event by type
func RecordWebhookEvent(eventType string) {
	WebhookEventCounter.With(prometheus.Labels{"type": eventType}).Inc()
}

// RecordEmail records an outbound email by kind and result
func RecordEmail(kind, result string) {
	EmailCounter.With(prometheus.Labels{"kind": kind, "result": result}).Inc()
}

// RecordVerification records an end-user verification operation
func RecordVerification(operation string) {
	VerificationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// TrackLLMCompletion measures one chat-completion call
func TrackLLMCompletion() func() {
	startTime := time.Now()
	return func() {
		LLMDuration.Observe(time.Since(startTime).Seconds())
	}
}

// UpdateActiveTenants updates the active tenants gauge
func UpdateActiveTenants(count int) {
	ActiveTenantsGauge.Set(float64(count))
}
