package logging

import (
	"context"
	"log/slog"

	context_ "github.com/mkrupp/homecase-gameapp/internal/infra/context"
)

// TracingHandler adds the trace ID and the session user found in the context to every record.
type TracingHandler struct {
	h Handler
}

var _ Handler = (*TracingHandler)(nil)

// NewTracingHandler creates a new TracingHandler wrapping the given handler.
func NewTracingHandler(h Handler) *TracingHandler {
	return &TracingHandler{h: h}
}

// Handle implements slog.Handler.Handle.
func (h *TracingHandler) Handle(ctx context.Context, r slog.Record) error {
	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		r.AddAttrs(slog.Group("trace", slog.String("id", traceID)))
	}

	if user, ok := context_.SessionUserFromContext(ctx); ok {
		r.AddAttrs(slog.Group("session",
			slog.Int64("userId", user.ID),
			slog.String("username", user.Username),
		))
	}

	//nolint:wrapcheck
	return h.h.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *TracingHandler) WithAttrs(attrs []slog.Attr) Handler {
	return NewTracingHandler(h.h.WithAttrs(attrs))
}

// WithGroup implements slog.Handler.WithGroup.
func (h *TracingHandler) WithGroup(name string) Handler {
	return NewTracingHandler(h.h.WithGroup(name))
}

// Enabled implements slog.Handler.Enabled.
func (h *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}
