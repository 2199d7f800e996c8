package handler

import (
	"net/http"

	"github.com/danielforeroj/alwaysonduty/pkg/database"

	"github.com/labstack/echo/v4"
)

// Root describes the service for anyone probing the base URL
func Root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"service": "onduty-backend",
		"status":  "running",
	})
}

// HealthCheck reports service and database health
func HealthCheck(c echo.Context) error {
	sqlDB, err := database.GetDB().DB()
	if err != nil || sqlDB.Ping() != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status":   "degraded",
			"database": "unreachable",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":   "ok",
		"database": "ok",
	})
}
