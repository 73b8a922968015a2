package core

import "log/slog"

// Logger receives structured operation events from the service. Key-value
// pairs follow the slog convention of alternating keys and values.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NopLogger returns a logger that discards everything.
func NopLogger() Logger { return noopLogger{} }

type slogLogger struct {
	inner *slog.Logger
}

// NewSlogLogger adapts a slog.Logger to the service Logger interface. A nil
// argument uses slog.Default.
func NewSlogLogger(inner *slog.Logger) Logger {
	if inner == nil {
		inner = slog.Default()
	}
	return slogLogger{inner: inner}
}

func (l slogLogger) Debug(msg string, keyvals ...any) { l.inner.Debug(msg, keyvals...) }
func (l slogLogger) Info(msg string, keyvals ...any)  { l.inner.Info(msg, keyvals...) }
func (l slogLogger) Warn(msg string, keyvals ...any)  { l.inner.Warn(msg, keyvals...) }
func (l slogLogger) Error(msg string, keyvals ...any) { l.inner.Error(msg, keyvals...) }
