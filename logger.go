package osr

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for osr and all its sub-packages.
// By default, osr produces no log output.
//
// The logger is propagated to every session in the default registry.
// Sessions created later pick it up on creation. Pass nil to restore the
// silent default.
//
// Log levels used by osr:
//   - [slog.LevelDebug]: per-frame diagnostics (buffer reallocation, texture churn)
//   - [slog.LevelInfo]: session lifecycle (browser created, session closed)
//   - [slog.LevelWarn]: dropped frames, failed uploads, leaked textures
//
// Example:
//
//	osr.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	DefaultRegistry().Each(func(s *Session) bool {
		propagateLogger(s, l)
		return true
	})
}

// Logger returns the current logger used by osr.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by components that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

func propagateLogger(target any, l *slog.Logger) {
	if ls, ok := target.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
