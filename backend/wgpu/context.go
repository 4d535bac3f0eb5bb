// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/striplayer/gpucore"
)

// Context is a worker's view of the shared device.
type Context struct {
	parent   *Parent
	id       int
	released atomic.Bool
	current  atomic.Pointer[Surface]
}

var _ gpucore.Context = (*Context)(nil)

// Surface is a small render attachment a context is made current against.
type Surface struct {
	dev  device
	tex  hal.Texture
	once sync.Once
}

// Release destroys the surface texture. It is safe to call more than once.
func (s *Surface) Release() {
	s.once.Do(func() { s.dev.DestroyTexture(s.tex) })
}

func (c *Context) String() string {
	return fmt.Sprintf("wgpu.Context#%d", c.id)
}

func (c *Context) check() error {
	if c.released.Load() {
		return gpucore.ErrContextLost
	}
	return nil
}

// CreateOffscreenSurface allocates a render attachment of the given size.
func (c *Context) CreateOffscreenSurface(width, height int) (gpucore.Surface, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: surface %dx%d", gpucore.ErrInvalidDimensions, width, height)
	}
	p := c.parent
	tex, err := p.dev.CreateTexture(&hal.TextureDescriptor{
		Label:         fmt.Sprintf("%s/context%d/surface", p.opts.label, c.id),
		Size:          extent(width, height),
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        p.opts.surfaceFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create surface: %w", err)
	}
	return &Surface{dev: p.dev, tex: tex}, nil
}

// MakeCurrent records s as the context's surface. hal devices are not
// bound to threads, so this only validates the surface.
func (c *Context) MakeCurrent(s gpucore.Surface) error {
	if err := c.check(); err != nil {
		return err
	}
	surf, ok := s.(*Surface)
	if !ok || surf == nil {
		return fmt.Errorf("wgpu: foreign surface %T", s)
	}
	c.current.Store(surf)
	return nil
}

// Current returns the surface passed to the last MakeCurrent.
func (c *Context) Current() *Surface {
	return c.current.Load()
}

// Release marks the context lost. Textures stay with the parent.
func (c *Context) Release() {
	if !c.released.CompareAndSwap(false, true) {
		return
	}
	c.current.Store(nil)
	p := c.parent
	p.mu.Lock()
	p.contexts--
	p.mu.Unlock()
}

// CreateTexture allocates a sampled texture and its view.
func (c *Context) CreateTexture(desc gpucore.TextureDescriptor) (gpucore.TextureID, error) {
	if err := c.check(); err != nil {
		return gpucore.InvalidID, err
	}
	return c.parent.createTexture(desc)
}

// UploadTexture writes data through the queue.
func (c *Context) UploadTexture(id gpucore.TextureID, data []byte) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.parent.uploadTexture(id, data)
}

// DestroyTexture frees the texture and every image exported from it.
func (c *Context) DestroyTexture(id gpucore.TextureID) {
	if c.check() == nil {
		c.parent.destroyTexture(id)
	}
}

// ExportImage returns an image ID naming the texture's view.
func (c *Context) ExportImage(id gpucore.TextureID) (gpucore.ImageID, error) {
	if err := c.check(); err != nil {
		return gpucore.InvalidID, err
	}
	return c.parent.exportImage(id)
}

// ReleaseImage drops the image ID.
func (c *Context) ReleaseImage(id gpucore.ImageID) {
	if c.check() == nil {
		c.parent.releaseImage(id)
	}
}

// Finish waits until the queue has executed every write issued so far.
func (c *Context) Finish() error {
	if err := c.check(); err != nil {
		return err
	}
	return c.parent.finish()
}
