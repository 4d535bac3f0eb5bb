// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"
	"sync"

	"github.com/gogpu/striplayer/backend"
	"github.com/gogpu/striplayer/gpucore"
)

func init() {
	backend.Register(backend.BackendSoftware, func(opts backend.Options) (gpucore.Parent, error) {
		return NewParent(WithLabel(opts.Label)), nil
	})
}

// texture is the storage behind a TextureID. pix is replaced, never
// written in place, so a reader holding the old slice sees a consistent
// image.
type texture struct {
	desc gpucore.TextureDescriptor
	pix  []byte
}

// Parent is a share group of software contexts.
type Parent struct {
	opts options

	mu       sync.Mutex
	nextTex  gpucore.TextureID
	nextImg  gpucore.ImageID
	textures map[gpucore.TextureID]*texture
	images   map[gpucore.ImageID]*texture
	contexts int
	uploads  int
}

// NewParent returns an empty share group.
func NewParent(opts ...Option) *Parent {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Parent{
		opts:     o,
		textures: make(map[gpucore.TextureID]*texture),
		images:   make(map[gpucore.ImageID]*texture),
	}
}

// NewSharedContext creates a context in the share group.
func (p *Parent) NewSharedContext() (gpucore.Context, error) {
	if p.opts.contextErr != nil {
		return nil, p.opts.contextErr
	}
	p.mu.Lock()
	p.contexts++
	n := p.contexts
	p.mu.Unlock()

	return &Context{parent: p, id: n}, nil
}

// NewCanvas returns a render target of the given size that can bind the
// group's exported images.
func (p *Parent) NewCanvas(width, height int) *Canvas {
	return newCanvas(p, width, height)
}

// Stats is a snapshot of live resources in the share group.
type Stats struct {
	Textures int
	Images   int
	Contexts int
	Uploads  int
}

func (s Stats) String() string {
	return fmt.Sprintf("textures=%d images=%d contexts=%d uploads=%d",
		s.Textures, s.Images, s.Contexts, s.Uploads)
}

// Stats reports live resources.
func (p *Parent) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Textures: len(p.textures),
		Images:   len(p.images),
		Contexts: p.contexts,
		Uploads:  p.uploads,
	}
}

func (p *Parent) createTexture(desc gpucore.TextureDescriptor) (gpucore.TextureID, error) {
	if err := desc.Validate(); err != nil {
		return gpucore.InvalidID, err
	}
	if desc.Width > p.opts.maxTextureDim || desc.Height > p.opts.maxTextureDim {
		return gpucore.InvalidID, fmt.Errorf("%w: %dx%d exceeds %d",
			gpucore.ErrInvalidDimensions, desc.Width, desc.Height, p.opts.maxTextureDim)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextTex++
	p.textures[p.nextTex] = &texture{desc: desc, pix: make([]byte, desc.SizeBytes())}
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
	if h := p.opts.uploadHook; h != nil {
		if err := h(t.desc, data); err != nil {
			return err
		}
	}

	pix := make([]byte, len(data))
	copy(pix, data)

	p.mu.Lock()
	t.pix = pix
	p.uploads++
	p.mu.Unlock()
	return nil
}

func (p *Parent) destroyTexture(id gpucore.TextureID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.textures, id)
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
	defer p.mu.Unlock()
	delete(p.images, id)
}

// image returns a snapshot of the texture behind an exported image.
func (p *Parent) image(id gpucore.ImageID) (gpucore.TextureDescriptor, []byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.images[id]
	if !ok {
		return gpucore.TextureDescriptor{}, nil, fmt.Errorf("%w: %d", gpucore.ErrUnknownImage, id)
	}
	return t.desc, t.pix, nil
}

func (p *Parent) releaseContext() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.contexts--
}

// Label returns the debug label given with WithLabel.
func (p *Parent) Label() string {
	return p.opts.label
}
