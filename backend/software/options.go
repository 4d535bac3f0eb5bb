// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import "github.com/gogpu/striplayer/gpucore"

// Option configures a Parent.
type Option func(*options)

// UploadHook is called before every texture upload with the texture's
// descriptor. A non-nil error fails the upload without touching the
// texture. Hooks run on the uploading context's thread and may block.
type UploadHook func(desc gpucore.TextureDescriptor, data []byte) error

type options struct {
	label         string
	contextErr    error
	surfaceErr    error
	makeCurrErr   error
	uploadHook    UploadHook
	maxTextureDim int
}

func defaultOptions() options {
	return options{maxTextureDim: 16384}
}

// WithLabel sets a debug label for the share group.
func WithLabel(label string) Option {
	return func(o *options) { o.label = label }
}

// WithMaxTextureDimension limits the width and height of textures.
// Larger requests fail with gpucore.ErrInvalidDimensions.
func WithMaxTextureDimension(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxTextureDim = n
		}
	}
}

// WithUploadHook installs a hook run before each upload.
func WithUploadHook(h UploadHook) Option {
	return func(o *options) { o.uploadHook = h }
}

// WithContextError makes NewSharedContext fail with err.
func WithContextError(err error) Option {
	return func(o *options) { o.contextErr = err }
}

// WithSurfaceError makes CreateOffscreenSurface fail with err.
func WithSurfaceError(err error) Option {
	return func(o *options) { o.surfaceErr = err }
}

// WithMakeCurrentError makes MakeCurrent fail with err.
func WithMakeCurrentError(err error) Option {
	return func(o *options) { o.makeCurrErr = err }
}
