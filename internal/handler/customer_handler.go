package handler

import (
	"errors"
	"net/http"

	"github.com/danielforeroj/alwaysonduty/internal/middleware"
	"github.com/danielforeroj/alwaysonduty/internal/service"
	"github.com/danielforeroj/alwaysonduty/pkg/database"
	"github.com/danielforeroj/alwaysonduty/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListCustomers returns a page of the tenant's chat customers
func ListCustomers(c echo.Context) error {
	tenant := middleware.CurrentTenant(c)
	page, pageSize := pagination(c)

	customers, err := service.ListCustomers(database.GetDB(), tenant.ID, page, pageSize)
	if err != nil {
		logger.FromContext(c).Error("customer listing failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"customers": customers,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetCustomer returns one customer within the tenant boundary
func GetCustomer(c echo.Context) error {
	tenant := middleware.CurrentTenant(c)

	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer id"})
	}

	customer, err := service.GetCustomer(database.GetDB(), tenant.ID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
		}
		logger.FromContext(c).Error("customer lookup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, customer)
}
