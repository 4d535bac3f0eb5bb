// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package executor

import "log/slog"

// Option configures an Executor.
type Option func(*options)

type options struct {
	surfaceWidth  int
	surfaceHeight int
	priority      int
	logger        *slog.Logger
}

// Default worker settings.
const (
	DefaultSurfaceSize    = 16
	DefaultThreadPriority = 10
)

func defaultOptions() options {
	return options{
		surfaceWidth:  DefaultSurfaceSize,
		surfaceHeight: DefaultSurfaceSize,
		priority:      DefaultThreadPriority,
	}
}

// WithSurfaceSize sets the size of the off-screen surface the worker
// context is made current against. Non-positive values keep the default.
func WithSurfaceSize(width, height int) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.surfaceWidth = width
			o.surfaceHeight = height
		}
	}
}

// WithThreadPriority sets the nice value applied to the worker thread.
// Zero leaves the thread at its inherited priority.
// Only honored on Linux.
func WithThreadPriority(nice int) Option {
	return func(o *options) {
		o.priority = nice
	}
}

// WithLogger sets a logger for this executor, overriding the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
