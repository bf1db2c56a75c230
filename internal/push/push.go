// Package push hands device notifications to an outbound transport. A
// downstream gateway owns the vendor push API; this service only publishes
// one envelope per device token.
package push

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-study-api/internal/requestctx"
	"github.com/noah-isme/gema-study-api/internal/observability"
)

// ErrEmptyToken is returned by transports asked to deliver to a blank token.
var ErrEmptyToken = errors.New("push token is empty")

// Message is the user-visible part of a push notification.
type Message struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Envelope is the wire payload published for a single device.
type Envelope struct {
	ID            string    `json:"id"`
	Token         string    `json:"token"`
	Message       Message   `json:"message"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Transport publishes envelopes to the push gateway.
type Transport interface {
	Name() string
	Deliver(ctx context.Context, envelope Envelope) error
}

// Dispatcher sends push messages. Failures are reported through the return
// values and logs, never as errors.
type Dispatcher interface {
	Send(ctx context.Context, token string, msg Message) bool
	// SendToMany delivers to each distinct non-empty token and returns the
	// number of successful deliveries.
	SendToMany(ctx context.Context, tokens []string, msg Message) int
}

// Client is the Dispatcher backed by a Transport.
type Client struct {
	transport Transport
	logger    zerolog.Logger
	now       func() time.Time
}

// NewClient wraps a transport.
func NewClient(transport Transport, logger zerolog.Logger) *Client {
	return &Client{
		transport: transport,
		logger:    logger.With().Str("component", "push_client").Str("transport", transport.Name()).Logger(),
		now:       time.Now,
	}
}

func (c *Client) Send(ctx context.Context, token string, msg Message) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}

	envelope := Envelope{
		ID:            uuid.NewString(),
		Token:         token,
		Message:       msg,
		CorrelationID: requestctx.CorrelationID(ctx),
		CreatedAt:     c.now().UTC(),
	}

	if err := c.transport.Deliver(ctx, envelope); err != nil {
		observability.PushDeliveries().WithLabelValues(c.transport.Name(), "failed").Inc()
		c.logger.Warn().Err(err).Str("envelope_id", envelope.ID).Str("title", msg.Title).Msg("push delivery failed")
		return false
	}

	observability.PushDeliveries().WithLabelValues(c.transport.Name(), "delivered").Inc()
	c.logger.Debug().Str("envelope_id", envelope.ID).Str("title", msg.Title).Msg("push delivered")
	return true
}

func (c *Client) SendToMany(ctx context.Context, tokens []string, msg Message) int {
	seen := make(map[string]struct{}, len(tokens))
	delivered := 0
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}

		if c.Send(ctx, token, msg) {
			delivered++
		}
	}
	return delivered
}
