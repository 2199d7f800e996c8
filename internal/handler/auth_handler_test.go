package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/danielforeroj/alwaysonduty/internal/middleware"
	"github.com/danielforeroj/alwaysonduty/internal/model"
	"github.com/danielforeroj/alwaysonduty/pkg/config"
	"github.com/danielforeroj/alwaysonduty/pkg/database"
	"github.com/danielforeroj/alwaysonduty/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})
	os.Exit(m.Run())
}

func setupAPI(t *testing.T) *echo.Echo {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Tenant{},
		&model.User{},
		&model.EmailVerificationToken{},
		&model.PasswordResetToken{},
		&model.Customer{},
		&model.ChannelIdentity{},
		&model.EndUserVerification{},
		&model.Conversation{},
		&model.Message{},
		&model.Agent{},
		&model.AgentDocument{},
	))
	database.SetDB(db)

	e := echo.New()
	e.POST("/api/auth/signup", Signup)
	e.POST("/api/auth/login", Login)
	e.GET("/api/auth/me", Me, middleware.AuthMiddleware)
	return e
}

func doJSON(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSignupLoginMe(t *testing.T) {
	e := setupAPI(t)

	rec := doJSON(e, http.MethodPost, "/api/auth/signup",
		`{"name":"Dana","business_name":"Dana's Bakery","email":"dana@example.com","password":"supersecret1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var signup struct {
		Token  string `json:"token"`
		Tenant struct {
			Slug string `json:"slug"`
		} `json:"tenant"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signup))
	assert.NotEmpty(t, signup.Token)
	assert.Equal(t, "danas-bakery", signup.Tenant.Slug)

	// Duplicate email is rejected.
	rec = doJSON(e, http.MethodPost, "/api/auth/signup",
		`{"business_name":"Other Shop","email":"dana@example.com","password":"supersecret1"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Login with the fresh credentials.
	rec = doJSON(e, http.MethodPost, "/api/auth/login",
		`{"email":"dana@example.com","password":"supersecret1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	// The session token opens /me, which hands back a fresh token.
	rec = doJSON(e, http.MethodGet, "/api/auth/me", "", login.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dana@example.com")
	assert.NotContains(t, rec.Body.String(), "hashed_password")

	var me struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.NotEmpty(t, me.Token)

	// No token, no profile.
	rec = doJSON(e, http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/auth/me", "", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignup_Validation(t *testing.T) {
	e := setupAPI(t)

	rec := doJSON(e, http.MethodPost, "/api/auth/signup",
		`{"business_name":"Shop","email":"short@example.com","password":"short"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/auth/signup",
		`{"email":"missing@example.com","password":"supersecret1"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
