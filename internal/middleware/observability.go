package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-study-api/internal/observability"
)

// Observability counts and times every request under prefix and writes one
// access line per request. Paths outside prefix, such as /metrics, pass
// through untouched.
func Observability(logger zerolog.Logger, prefix string) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		if !strings.HasPrefix(c.Path(), prefix) {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		method := c.Method()
		status := c.Response().StatusCode()
		code := strconv.Itoa(status)

		observability.APIRequests().WithLabelValues(method, route, code).Inc()
		observability.APILatency().WithLabelValues(method, route).Observe(elapsed.Seconds())

		event := logger.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			observability.APIErrors().WithLabelValues(method, route, code).Inc()
			event = logger.Error()
		case status >= fiber.StatusBadRequest:
			observability.APIErrors().WithLabelValues(method, route, code).Inc()
			event = logger.Warn()
		}

		event = event.
			Str("correlation_id", GetCorrelationID(c)).
			Str("method", method).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", elapsed)
		if id, ok := c.Locals(LocalUserID).(uint); ok {
			event = event.Uint("user_id", id)
		}
		if role, ok := c.Locals(LocalUserRole).(string); ok {
			event = event.Str("role", role)
		}
		if kind := c.Params("kind"); kind != "" {
			event = event.Str("kind", kind)
		}
		event.Msg("request served")

		return err
	}
}
