package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const RequestIDKey = "request_id"

// RequestLogger tags every request with an X-Request-ID (reusing the
// client's one when present) and logs it once the handler chain returns.
func RequestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, id)
		c.Locals(RequestIDKey, id)

		err := c.Next()

		attrs := []any{
			"id", id,
			"method", c.Method(),
			"path", c.Path(),
			"duration", time.Since(start),
		}
		if err != nil {
			// Статус выставит ErrorHandler уже после middleware
			logger.Warn("[HTTP] request failed", append(attrs, "error", err)...)
			return err
		}
		logger.Info("[HTTP] request", append(attrs, "status", c.Response().StatusCode())...)
		return nil
	}
}
