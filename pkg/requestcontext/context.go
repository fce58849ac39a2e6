// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them, services only read them, and
// neither side needs to agree on anything beyond this package.
package requestcontext

import (
	"context"
)

type requestIDKey struct{}

// WithRequestID stores the request correlation ID on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request correlation ID, or "" when none was set.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}
