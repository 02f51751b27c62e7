package logger

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// UserIDLocal is the fiber Locals key the auth middleware fills; read here
// without importing auth.
const UserIDLocal = "user_id"

// RequestLogger logs every request with timing and status, and puts a
// request-scoped logger on the user context.
func RequestLogger(log *Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqLog := log.With("method", c.Method(), "path", c.Path())
		c.SetUserContext(WithLogger(c.UserContext(), reqLog))

		err := c.Next()
		if err != nil {
			// render now so the logged status is the one the client gets
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		fields := []any{
			"status", c.Response().StatusCode(),
			"latency_ms", time.Since(start).Milliseconds(),
			"ip", c.IP(),
		}
		if uid, ok := c.Locals(UserIDLocal).(string); ok && uid != "" {
			fields = append(fields, "user_id", uid)
		}
		if err != nil {
			fields = append(fields, "error", err.Error())
		}
		reqLog.Infow("http request", fields...)
		return nil
	}
}
