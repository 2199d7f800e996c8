package middleware

import (
	"net/http"
	"strings"

	"github.com/danielforeroj/alwaysonduty/internal/model"
	"github.com/danielforeroj/alwaysonduty/pkg/database"
	"github.com/danielforeroj/alwaysonduty/pkg/jwtutil"
	"github.com/danielforeroj/alwaysonduty/pkg/logger"
	"github.com/danielforeroj/alwaysonduty/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func bearerToken(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware validates the JWT token from the Authorization header
// and loads the current user and tenant into the request context.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		tokenString, ok := bearerToken(c)
		if !ok {
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing or malformed authorization header"})
		}

		claims, err := jwtutil.ValidateToken(tokenString)
		if err != nil {
			log.Debug("invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// End-user tokens only open the webchat surface, never the dashboard.
		if claims.Scope == jwtutil.ScopeEndUser {
			prometheus.RecordAuthError("wrong_scope")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		var user model.User
		if err := database.GetDB().First(&user, "id = ?", userID).Error; err != nil {
			log.Warn("token subject not found", zap.String("user_id", claims.Subject))
			prometheus.RecordAuthError("unknown_user")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}
		if !user.IsActive {
			prometheus.RecordAuthError("inactive_user")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "account is deactivated"})
		}

		var tenant model.Tenant
		if err := database.GetDB().First(&tenant, "id = ?", user.TenantID).Error; err != nil {
			log.Error("user has no tenant", zap.String("user_id", user.ID.String()), zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant not found"})
		}

		c.Set("current_user", &user)
		c.Set("current_tenant", &tenant)
		return next(c)
	}
}

// RequireSuperAdmin gates back-office routes. It must run after
// AuthMiddleware.
func RequireSuperAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := CurrentUser(c)
		if user == nil || user.Role != model.RoleSuperAdmin {
			prometheus.RecordAuthError("not_super_admin")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "super admin access required"})
		}
		return next(c)
	}
}

// EndUserAuthMiddleware validates a scoped end-user token issued after
// code verification and exposes the customer and tenant IDs.
func EndUserAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing or malformed authorization header"})
		}

		claims, err := jwtutil.ValidateToken(tokenString)
		if err != nil || claims.Scope != jwtutil.ScopeEndUser {
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}
		customerID, cerr := uuid.Parse(claims.CustomerID)
		tenantID, terr := uuid.Parse(claims.TenantID)
		if cerr != nil || terr != nil {
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		c.Set("end_user_customer_id", customerID)
		c.Set("end_user_tenant_id", tenantID)
		return next(c)
	}
}

// CurrentUser returns the authenticated user loaded by AuthMiddleware
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get("current_user").(*model.User)
	return user
}

// CurrentTenant returns the authenticated user's tenant
func CurrentTenant(c echo.Context) *model.Tenant {
	tenant, _ := c.Get("current_tenant").(*model.Tenant)
	return tenant
}

// EndUserIDs returns the customer and tenant behind a verified end-user
// token
func EndUserIDs(c echo.Context) (uuid.UUID, uuid.UUID, bool) {
	customerID, ok1 := c.Get("end_user_customer_id").(uuid.UUID)
	tenantID, ok2 := c.Get("end_user_tenant_id").(uuid.UUID)
	return customerID, tenantID, ok1 && ok2
}
