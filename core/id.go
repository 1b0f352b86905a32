package core

import (
	"context"

	"github.com/google/uuid"
)

// NewID returns a random identifier used for requests and tool calls.
func NewID() string { return uuid.NewString() }

type requestIDKey struct{}

// WithRequestID attaches a request id to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id stored in ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
