package logger

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// FromContext retrieves the request-scoped logger from the Echo context
func FromContext(c echo.Context) *zap.Logger {
	l, ok := c.Get("logger").(*zap.Logger)
	if !ok {
		return GetLogger()
	}
	return l
}

// Middleware returns an Echo middleware that logs HTTP requests
func Middleware(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			requestID := c.Request().Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = c.Response().Header().Get("X-Request-ID")
			}

			ctxLogger := base.With(zap.String("request_id", requestID))
			c.Set("logger", ctxLogger)

			err := next(c)

			latency := time.Since(start)
			ctxLogger.Info("HTTP Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", latency),
				zap.String("ip", c.RealIP()),
			)

			return err
		}
	}
}
