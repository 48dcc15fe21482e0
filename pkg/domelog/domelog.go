// Package domelog is a thin logging façade around [log/slog].
//
// The core never depends on a concrete sink: it asks for a [Logger] and
// calls Info/Warn/Error with a short component tag, exactly as the rest of
// the observatory stack's structured log does. Tests and the daemon wire in
// whatever [slog.Handler] they like.
package domelog

import (
	"log/slog"
	"os"
)

// Logger is the interface the core calls into. A tag identifies the
// component emitting the event ("[SHUTTER]", "[HEARTBEAT]", ...).
type Logger interface {
	Info(tag, message string, kv ...any)
	Warn(tag, message string, kv ...any)
	Error(tag, message string, kv ...any)
}

type slogLogger struct {
	base *slog.Logger
}

// New wraps a [slog.Logger]. If base is nil, slog.Default() is used.
func New(base *slog.Logger) Logger {
	if base == nil {
		base = slog.Default()
	}
	return &slogLogger{base: base}
}

// NewText builds a logger writing human-readable lines to w (os.Stdout if
// w is nil).
func NewText(w *os.File) Logger {
	if w == nil {
		w = os.Stdout
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	return New(slog.New(handler))
}

func (l *slogLogger) Info(tag, message string, kv ...any) {
	l.base.Info(message, append([]any{"component", tag}, kv...)...)
}

func (l *slogLogger) Warn(tag, message string, kv ...any) {
	l.base.Warn(message, append([]any{"component", tag}, kv...)...)
}

func (l *slogLogger) Error(tag, message string, kv ...any) {
	l.base.Error(message, append([]any{"component", tag}, kv...)...)
}

// Discard is a [Logger] that drops everything; useful in tests that don't
// assert on log output.
var Discard Logger = discard{}

type discard struct{}

func (discard) Info(string, string, ...any)  {}
func (discard) Warn(string, string, ...any)  {}
func (discard) Error(string, string, ...any) {}
