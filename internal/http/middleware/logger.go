package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"nexus/internal/logging"
)

// Logger logs each HTTP request as one JSON line with request_id, method,
// path, status and latency in milliseconds.
func Logger(log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

				status := responseStatus(c, err)
		entry := map[string]any{
			"request_id": RequestIDFrom(c),
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			entry["level"] = "error"
		case status >= fiber.StatusBadRequest:
			entry["level"] = "warn"
		}
		log.Log(entry)

		return err
	}
}

// LoggerWithWriter is Logger writing to w with timestamps in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logging.New(w, loc))
}

// responseStatus returns the status the error handler will send for err, or
// the status already written when err is nil.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	if fe, ok := err.(*fiber.Error); ok {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
