// Package requestctx carries per-request values, such as the correlation id,
// on a context.Context so packages below the HTTP layer can read them.
package requestctx

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type correlationIDKey struct{}

// WithCorrelationID binds id to ctx. A blank id leaves ctx untouched.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationID returns the id bound to ctx, or "".
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// NewRun starts a background unit of work, such as a sweep, under a fresh
// correlation id and returns both.
func NewRun(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return WithCorrelationID(ctx, id), id
}
