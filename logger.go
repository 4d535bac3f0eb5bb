package striplayer

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/striplayer/executor"
	"github.com/gogpu/striplayer/texture"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine,
// including executor workers.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for striplayer and its sub-packages
// (executor, texture). By default nothing is logged.
//
// SetLogger is safe for concurrent use. Pass nil to disable logging.
//
// Log levels used:
//   - [slog.LevelDebug]: per-strip diagnostics (upload scheduled, swap, recreation)
//   - [slog.LevelInfo]: lifecycle events (layer created, layer closed)
//   - [slog.LevelWarn]: non-fatal issues (failed upload, recovered task panic)
//   - [slog.LevelError]: the executor worker context could not be created
//
// Example:
//
//	striplayer.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	executor.SetLogger(l)
	texture.SetLogger(l)
}

// Logger returns the current logger used by striplayer.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
