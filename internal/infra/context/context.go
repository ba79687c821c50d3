// Package context carries request-scoped values between the transport and the logging layer.
package context

import (
	"context"
)

type contextKey string

const (
	contextKeyTraceID     = contextKey("traceID")
	contextKeySessionUser = contextKey("sessionUser")
)

// TraceIDFromContext extracts the trace ID from the context.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(contextKeyTraceID).(string)

	return traceID, ok
}

// WithTraceID returns a copy of ctx carrying traceID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKeyTraceID, traceID)
}

// SessionUser identifies the logged-in user a request was served for.
type SessionUser struct {
	ID       int64
	Username string
}

// SessionUserFromContext extracts the session user from the context.
// Returns false if the request was not made within a session.
func SessionUserFromContext(ctx context.Context) (SessionUser, bool) {
	user, ok := ctx.Value(contextKeySessionUser).(SessionUser)

	return user, ok
}

// WithSessionUser returns a copy of ctx carrying the session user.
func WithSessionUser(ctx context.Context, id int64, username string) context.Context {
	return context.WithValue(ctx, contextKeySessionUser, SessionUser{ID: id, Username: username})
}
