package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type contextKey string

const loggerKey = contextKey("logger")

// RequestIDHeader carries the id assigned to every request
const RequestIDHeader = "X-Request-ID"

// RequestLogger stores a request-scoped logger tagged with a fresh request id
// and logs the outcome of the request.
func RequestLogger(base *slog.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		requestID := uuid.NewString()

		logger := base.With(
			slog.String("request_id", requestID),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
		)
		c.Set(RequestIDHeader, requestID)
		c.Locals(loggerKey, logger)

		err := c.Next()

		logger.Info("request completed",
			slog.Int("status", c.Response().StatusCode()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
		)
		return err
	}
}

// Logger returns the request-scoped logger, or the default one outside RequestLogger
func Logger(c fiber.Ctx) *slog.Logger {
	if logger, ok := c.Locals(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
