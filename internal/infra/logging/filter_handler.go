package logging

import (
	"context"
	"log/slog"
	"strings"
)

// FilterHandler drops records below the level configured for the logger name.
// Names are dotted ("repo.user.sqlite"); the longest configured prefix wins and
// the base level applies when no prefix matches.
type FilterHandler struct {
	next   Handler
	base   Level
	levels map[string]Level
	name   string
}

var _ Handler = (*FilterHandler)(nil)

// NewFilterHandler wraps next with a base level and per-name overrides.
func NewFilterHandler(next Handler, base Level, levels map[string]Level) *FilterHandler {
	return &FilterHandler{next: next, base: base, levels: levels}
}

func (h *FilterHandler) level() Level {
	parts := strings.Split(h.name, ".")

	for i := len(parts); i > 0; i-- {
		if level, ok := h.levels[strings.Join(parts[:i], ".")]; ok {
			return level
		}
	}

	return h.base
}

// Enabled implements slog.Handler.Enabled.
func (h *FilterHandler) Enabled(ctx context.Context, level Level) bool {
	return level >= h.level() && h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.Handle.
func (h *FilterHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < h.level() {
		return nil
	}

	//nolint:wrapcheck
	return h.next.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.WithAttrs and picks up the logger name.
func (h *FilterHandler) WithAttrs(attrs []slog.Attr) Handler {
	name := h.name

	for _, attr := range attrs {
		if attr.Key == LoggerNameKey {
			name = attr.Value.String()
		}
	}

	return &FilterHandler{next: h.next.WithAttrs(attrs), base: h.base, levels: h.levels, name: name}
}

// WithGroup implements slog.Handler.WithGroup.
func (h *FilterHandler) WithGroup(group string) Handler {
	return &FilterHandler{next: h.next.WithGroup(group), base: h.base, levels: h.levels, name: h.name}
}
