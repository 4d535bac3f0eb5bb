// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"time"

	"github.com/gogpu/gputypes"
)

// DefaultFenceTimeout bounds how long Finish waits for the queue.
const DefaultFenceTimeout = 5 * time.Second

// Option configures a Parent.
type Option func(*options)

type options struct {
	label         string
	fenceTimeout  time.Duration
	surfaceFormat gputypes.TextureFormat
}

func defaultOptions() options {
	return options{
		label:         "striplayer",
		fenceTimeout:  DefaultFenceTimeout,
		surfaceFormat: gputypes.TextureFormatRGBA8Unorm,
	}
}

// WithLabel sets the prefix of every hal debug label.
func WithLabel(label string) Option {
	return func(o *options) {
		if label != "" {
			o.label = label
		}
	}
}

// WithFenceTimeout sets how long Finish waits. Non-positive values keep
// the default.
func WithFenceTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.fenceTimeout = d
		}
	}
}

// WithSurfaceFormat sets the format of worker off-screen surfaces.
func WithSurfaceFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		if f != gputypes.TextureFormatUndefined {
			o.surfaceFormat = f
		}
	}
}
