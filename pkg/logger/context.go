package logger

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const loggerKey = "logger"

// FromContext retrieves the request-scoped logger from the Echo context
func FromContext(c echo.Context) *zap.Logger {
	l, ok := c.Get(loggerKey).(*zap.Logger)
	if !ok {
		return GetLogger()
	}
	return l
}

// SetContext stores the request-scoped logger in the Echo context
func SetContext(c echo.Context, l *zap.Logger) {
	c.Set(loggerKey, l)
}

// With enriches the request-scoped logger with extra fields
func With(c echo.Context, fields ...zap.Field) *zap.Logger {
	l := FromContext(c).With(fields...)
	SetContext(c, l)
	return l
}
