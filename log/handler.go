// Package log provides structured logging (slog) helpers for the bridge:
// a handler that annotates every record with the execution context it was
// emitted from.
package log

import (
	"context"
	"log/slog"

	"github.com/hostbridge-dev/hostbridge/looper"
)

// ContextHandler wraps an slog.Handler and adds an "exec_context" attribute
// naming the execution context a record was emitted from, when the record's
// context originates from a looper work item.
type ContextHandler struct {
	inner slog.Handler
}

// NewContextHandler wraps inner.
func NewContextHandler(inner slog.Handler) *ContextHandler {
	return &ContextHandler{inner: inner}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if l := looper.FromContext(ctx); l != nil {
		rec.AddAttrs(slog.String("exec_context", l.Name()))
	}
	return h.inner.Handle(ctx, rec)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}

// ParseLevel maps a configuration string to an slog.Level, defaulting to
// info for unknown values.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
