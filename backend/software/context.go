// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/striplayer/gpucore"
)

// Context is a software context in a Parent's share group.
type Context struct {
	parent   *Parent
	id       int
	released atomic.Bool
	current  atomic.Pointer[Surface]
	finishes atomic.Int64
}

var _ gpucore.Context = (*Context)(nil)

// Surface is an off-screen drawable. It holds no pixels; the software
// backend never renders into worker surfaces.
type Surface struct {
	Width, Height int
	released      atomic.Bool
}

// Release marks the surface destroyed.
func (s *Surface) Release() { s.released.Store(true) }

// Released reports whether Release was called.
func (s *Surface) Released() bool { return s.released.Load() }

func (c *Context) String() string {
	return fmt.Sprintf("software.Context#%d", c.id)
}

func (c *Context) check() error {
	if c.released.Load() {
		return gpucore.ErrContextLost
	}
	return nil
}

// CreateOffscreenSurface returns a pixel-less surface of the given size.
func (c *Context) CreateOffscreenSurface(width, height int) (gpucore.Surface, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if c.parent.opts.surfaceErr != nil {
		return nil, c.parent.opts.surfaceErr
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: surface %dx%d", gpucore.ErrInvalidDimensions, width, height)
	}
	return &Surface{Width: width, Height: height}, nil
}

// MakeCurrent binds s to the context.
func (c *Context) MakeCurrent(s gpucore.Surface) error {
	if err := c.check(); err != nil {
		return err
	}
	if c.parent.opts.makeCurrErr != nil {
		return c.parent.opts.makeCurrErr
	}
	surf, ok := s.(*Surface)
	if !ok || surf == nil || surf.Released() {
		return fmt.Errorf("software: make current: invalid surface %T", s)
	}
	c.current.Store(surf)
	return nil
}

// Current returns the surface the context was made current against.
func (c *Context) Current() *Surface {
	return c.current.Load()
}

// Release destroys the context. Textures stay alive in the share group.
func (c *Context) Release() {
	if c.released.Swap(true) {
		return
	}
	c.current.Store(nil)
	c.parent.releaseContext()
}

// CreateTexture allocates a zeroed texture.
func (c *Context) CreateTexture(desc gpucore.TextureDescriptor) (gpucore.TextureID, error) {
	if err := c.check(); err != nil {
		return gpucore.InvalidID, err
	}
	return c.parent.createTexture(desc)
}

// UploadTexture replaces the texture contents.
func (c *Context) UploadTexture(id gpucore.TextureID, data []byte) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.parent.uploadTexture(id, data)
}

// DestroyTexture frees the texture.
func (c *Context) DestroyTexture(id gpucore.TextureID) {
	c.parent.destroyTexture(id)
}

// ExportImage makes the texture bindable from any context or canvas of
// the share group.
func (c *Context) ExportImage(id gpucore.TextureID) (gpucore.ImageID, error) {
	if err := c.check(); err != nil {
		return gpucore.InvalidID, err
	}
	return c.parent.exportImage(id)
}

// ReleaseImage drops the exported image.
func (c *Context) ReleaseImage(id gpucore.ImageID) {
	c.parent.releaseImage(id)
}

// Finish returns immediately; software uploads complete synchronously.
func (c *Context) Finish() error {
	if err := c.check(); err != nil {
		return err
	}
	c.finishes.Add(1)
	return nil
}

// Finishes returns how many times Finish succeeded.
func (c *Context) Finishes() int64 {
	return c.finishes.Load()
}
