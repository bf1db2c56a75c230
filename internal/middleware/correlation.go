package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/noah-isme/gema-study-api/internal/requestctx"
)

const (
	// HeaderCorrelationID is echoed on every response.
	HeaderCorrelationID = "X-Correlation-ID"
	headerRequestID     = "X-Request-ID"

	// LocalCorrelationID is the fiber locals key holding the request's id.
	LocalCorrelationID = "correlation_id"
)

// CorrelationID tags each request with an id taken from the caller's headers
// or freshly generated. The id travels on the user context so push envelopes
// published while serving the request carry it.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := firstNonBlank(c.Get(HeaderCorrelationID), c.Get(headerRequestID))
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(LocalCorrelationID, id)
		c.Set(HeaderCorrelationID, id)
		c.SetUserContext(requestctx.WithCorrelationID(c.UserContext(), id))

		return c.Next()
	}
}

// GetCorrelationID returns the id of the request being served.
func GetCorrelationID(c *fiber.Ctx) string {
	if id, ok := c.Locals(LocalCorrelationID).(string); ok {
		return id
	}
	return requestctx.CorrelationID(c.UserContext())
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
