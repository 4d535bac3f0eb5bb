// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/striplayer/backend"
	"github.com/gogpu/striplayer/gpucore"
)

func init() {
	backend.Register(backend.BackendWGPU, func(opts backend.Options) (gpucore.Parent, error) {
		return NewParent(opts.Provider, WithLabel(opts.Label))
	})
}

// resource is a hal texture with the view compositors sample from.
type resource struct {
	desc gpucore.TextureDescriptor
	tex  hal.Texture
	view hal.TextureView
}

// Parent shares one hal device between the host and worker contexts.
type Parent struct {
	dev   device
	queue queue
	opts  options

	mu       sync.Mutex
	nextTex  gpucore.TextureID
	nextImg  gpucore.ImageID
	textures map[gpucore.TextureID]*resource
	images   map[gpucore.ImageID]*resource
	contexts int
}

// NewParent returns a Parent over the provider's hal device. The provider
// must implement HalDevice() any and HalQueue() any. When it reports a
// surface format, worker surfaces use it.
func NewParent(provider gpucontext.DeviceProvider, opts ...Option) (*Parent, error) {
	dev, q, err := unwrap(provider)
	if err != nil {
		return nil, err
	}
	if f := provider.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
		opts = append([]Option{WithSurfaceFormat(f)}, opts...)
	}
	return newParent(dev, halQueue(q), opts...), nil
}

func newParent(dev device, q queue, opts ...Option) *Parent {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Parent{
		dev:      dev,
		queue:    q,
		opts:     o,
		textures: make(map[gpucore.TextureID]*resource),
		images:   make(map[gpucore.ImageID]*resource),
	}
}

// NewSharedContext returns a worker context on the shared device.
func (p *Parent) NewSharedContext() (gpucore.Context, error) {
	p.mu.Lock()
	p.contexts++
	n := p.contexts
	p.mu.Unlock()
	return &Context{parent: p, id: n}, nil
}

// NewCanvas returns a canvas forwarding draws to comp.
func (p *Parent) NewCanvas(comp Compositor) *Canvas {
	return &Canvas{parent: p, comp: comp}
}

// Live returns the number of live textures and exported images.
func (p *Parent) Live() (textures, images int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.textures), len(p.images)
}

func (p *Parent) createTexture(desc gpucore.TextureDescriptor) (gpucore.TextureID, error) {
	if err := desc.Validate(); err != nil {
		return gpucore.InvalidID, err
	}
	label := desc.Label
	if label == "" {
		label = p.opts.label + "/texture"
	}

	tex, err := p.dev.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          extent(desc.Width, desc.Height),
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format.TextureFormat(),
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create texture %q: %w", label, err)
	}
	view, err := p.dev.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        desc.Format.TextureFormat(),
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		p.dev.DestroyTexture(tex)
		return gpucore.InvalidID, fmt.Errorf("wgpu: create view %q: %w", label, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextTex++
	p.textures[p.nextTex] = &resource{desc: desc, tex: tex, view: view}
	return p.nextTex, nil
}

func (p *Parent) uploadTexture(id gpucore.TextureID, data []byte) error {
	p.mu.Lock()
	t, ok := p.textures[id]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", gpucore.ErrUnknownTexture, id)
	}
	if len(data) != t.desc.SizeBytes() {
		return fmt.Errorf("%w: got %d bytes, want %d", gpucore.ErrUploadSize, len(data), t.desc.SizeBytes())
	}

	size := extent(t.desc.Width, t.desc.Height)
	p.queue.write(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(t.desc.Width * t.desc.Format.BytesPerPixel()), //nolint:gosec // validated positive
			RowsPerImage: size.Height,
		},
		&size,
	)
	return nil
}

func (p *Parent) destroyTexture(id gpucore.TextureID) {
	p.mu.Lock()
	t, ok := p.textures[id]
	delete(p.textures, id)
	for img, it := range p.images {
		if it == t {
			delete(p.images, img)
		}
	}
	p.mu.Unlock()

	if ok {
		p.dev.DestroyTextureView(t.view)
		p.dev.DestroyTexture(t.tex)
	}
}

func (p *Parent) exportImage(id gpucore.TextureID) (gpucore.ImageID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.textures[id]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: %d", gpucore.ErrUnknownTexture, id)
	}
	p.nextImg++
	p.images[p.nextImg] = t
	return p.nextImg, nil
}

func (p *Parent) releaseImage(id gpucore.ImageID) {
	p.mu.Lock()
	delete(p.images, id)
	p.mu.Unlock()
}

func (p *Parent) image(id gpucore.ImageID) (*resource, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.images[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", gpucore.ErrUnknownImage, id)
	}
	return t, nil
}

// finish submits an empty batch with a fresh fence and waits for it.
func (p *Parent) finish() error {
	fence, err := p.dev.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer p.dev.DestroyFence(fence)

	if err := p.queue.submit(fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	ok, err := p.dev.Wait(fence, 1, p.opts.fenceTimeout)
	if err != nil {
		return fmt.Errorf("wgpu: wait for queue: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w after %v", ErrFenceTimeout, p.opts.fenceTimeout)
	}
	return nil
}

func extent(w, h int) hal.Extent3D {
	return hal.Extent3D{
		Width:              uint32(w), //nolint:gosec // validated positive
		Height:             uint32(h), //nolint:gosec // validated positive
		DepthOrArrayLayers: 1,
	}
}
