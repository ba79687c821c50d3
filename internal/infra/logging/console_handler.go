package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

const (
	ansiReset     = "\033[0m"
	ansiRed       = "\033[31m"
	ansiGreen     = "\033[32m"
	ansiYellow    = "\033[33m"
	ansiCyan      = "\033[36m"
	ansiGray      = "\033[90m"
	ansiUnderline = "\033[4m"
)

//nolint:gochecknoglobals
var levelColors = map[Level]string{
	LevelDebug: ansiCyan,
	LevelInfo:  ansiGreen,
	LevelWarn:  ansiYellow,
	LevelError: ansiRed,
}

// ConsoleHandler writes colored, human-readable records for development.
// Level filtering is left to the wrapping FilterHandler.
type ConsoleHandler struct {
	out    io.Writer
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
}

var _ Handler = (*ConsoleHandler)(nil)

// NewConsoleHandler creates a ConsoleHandler writing to out.
func NewConsoleHandler(out io.Writer) *ConsoleHandler {
	return &ConsoleHandler{out: out, mu: new(sync.Mutex)}
}

// Handle implements slog.Handler.Handle.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	b.WriteString(ansiGray + r.Time.Format("15:04:05.000000") + ansiReset)
	b.WriteString(" " + levelColors[r.Level] + "[" + r.Level.String() + "]" + ansiReset)
	b.WriteString(" " + r.Message)

	attrs := make([]slog.Attr, 0, r.NumAttrs()+len(h.attrs))
	attrs = append(attrs, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)

		return true
	})

	if len(attrs) > 0 {
		prefix := ""
		if len(h.groups) > 0 {
			prefix = strings.Join(h.groups, ".") + "."
		}

		b.WriteString(" " + ansiGray + "|" + ansiReset)
		writeAttrs(&b, prefix, attrs)
	}

	if r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		b.WriteString("\n-> " + ansiGray + path.Base(frame.Function) + "()")
		b.WriteString(" in " + ansiUnderline + frame.File + ":" + strconv.Itoa(frame.Line) + ansiReset)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := fmt.Fprintln(h.out, b.String()); err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	return nil
}

func writeAttrs(b *strings.Builder, prefix string, attrs []slog.Attr) {
	for _, attr := range attrs {
		if attr.Value.Kind() == slog.KindGroup {
			writeAttrs(b, prefix+attr.Key+".", attr.Value.Group())

			continue
		}

		b.WriteString(" " + prefix + attr.Key + "=" + ansiGray + attr.Value.String() + ansiReset)
	}
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) Handler {
	return &ConsoleHandler{
		out:    h.out,
		mu:     h.mu,
		attrs:  append(append([]slog.Attr{}, h.attrs...), attrs...),
		groups: h.groups,
	}
}

// WithGroup implements slog.Handler.WithGroup.
func (h *ConsoleHandler) WithGroup(name string) Handler {
	return &ConsoleHandler{
		out:    h.out,
		mu:     h.mu,
		attrs:  h.attrs,
		groups: append(append([]string{}, h.groups...), name),
	}
}

// Enabled implements slog.Handler.Enabled.
func (h *ConsoleHandler) Enabled(context.Context, Level) bool {
	return true
}
