// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texture

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/striplayer/executor"
	"github.com/gogpu/striplayer/gpucore"
)

// ErrUnknownImage is returned when an image ID is not in the registry.
var ErrUnknownImage = errors.New("texture: unknown image")

// Initializer fills a freshly created texture. It runs on the executor
// worker with the texture already allocated. A nil Initializer leaves
// the contents undefined.
type Initializer func(dev gpucore.Device, tex gpucore.TextureID) error

// Updater modifies an existing texture on the executor worker.
type Updater func(dev gpucore.Device, tex gpucore.TextureID) error

// Upload returns an Initializer (or Updater) replacing the whole texture
// with data.
func Upload(data []byte) func(gpucore.Device, gpucore.TextureID) error {
	return func(dev gpucore.Device, tex gpucore.TextureID) error {
		return dev.UploadTexture(tex, data)
	}
}

type entry struct {
	tex  gpucore.TextureID
	desc gpucore.TextureDescriptor
}

// Registry maps shareable image IDs to the textures backing them.
//
// The map is only touched by tasks running on the executor worker, so it
// carries no lock. Methods without the On suffix submit such a task and
// may be called from any goroutine. Methods with the On suffix must be
// called from inside a task and take the task's device as proof of that.
type Registry struct {
	exec   *executor.Executor
	images map[gpucore.ImageID]entry
}

// NewRegistry returns an empty registry whose work runs on exec.
func NewRegistry(exec *executor.Executor) *Registry {
	return &Registry{
		exec:   exec,
		images: make(map[gpucore.ImageID]entry),
	}
}

// Executor returns the executor the registry submits to.
func (r *Registry) Executor() *executor.Executor {
	return r.exec
}

// Create allocates a texture, runs init on it, exports it as a shareable
// image and records the mapping. The future resolves to the image ID.
func (r *Registry) Create(desc gpucore.TextureDescriptor, init Initializer) *executor.Future[gpucore.ImageID] {
	return executor.Call(r.exec, func(_ context.Context, dev gpucore.Device) (gpucore.ImageID, error) {
		return r.CreateOn(dev, desc, init)
	})
}

// CreateOn is Create for callers already running on the worker.
func (r *Registry) CreateOn(dev gpucore.Device, desc gpucore.TextureDescriptor, init Initializer) (gpucore.ImageID, error) {
	if err := desc.Validate(); err != nil {
		return gpucore.InvalidID, fmt.Errorf("texture: create %q: %w", desc.Label, err)
	}

	tex, err := dev.CreateTexture(desc)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("texture: create %q: %w", desc.Label, err)
	}
	if init != nil {
		if err := init(dev, tex); err != nil {
			dev.DestroyTexture(tex)
			return gpucore.InvalidID, fmt.Errorf("texture: initialize %q: %w", desc.Label, err)
		}
	}
	img, err := dev.ExportImage(tex)
	if err != nil {
		dev.DestroyTexture(tex)
		return gpucore.InvalidID, fmt.Errorf("texture: export %q: %w", desc.Label, err)
	}

	r.images[img] = entry{tex: tex, desc: desc}
	slogger().Debug("texture: created",
		"label", desc.Label, "image", uint64(img), "texture", uint64(tex),
		"size", fmt.Sprintf("%dx%d", desc.Width, desc.Height), "format", desc.Format)
	return img, nil
}

// Update runs fn on the texture behind id.
func (r *Registry) Update(id gpucore.ImageID, fn Updater) *executor.Handle {
	return r.exec.Submit(func(_ context.Context, dev gpucore.Device) error {
		return r.UpdateOn(dev, id, fn)
	})
}

// UpdateOn is Update for callers already running on the worker.
func (r *Registry) UpdateOn(dev gpucore.Device, id gpucore.ImageID, fn Updater) error {
	e, ok := r.images[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownImage, id)
	}
	return fn(dev, e.tex)
}

// Destroy releases the image and frees its texture.
func (r *Registry) Destroy(id gpucore.ImageID) *executor.Handle {
	return r.exec.Submit(func(_ context.Context, dev gpucore.Device) error {
		return r.DestroyOn(dev, id)
	})
}

// DestroyOn is Destroy for callers already running on the worker.
func (r *Registry) DestroyOn(dev gpucore.Device, id gpucore.ImageID) error {
	e, ok := r.images[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownImage, id)
	}
	delete(r.images, id)
	dev.ReleaseImage(id)
	dev.DestroyTexture(e.tex)
	slogger().Debug("texture: destroyed", "label", e.desc.Label, "image", uint64(id))
	return nil
}

// DescriptorOn returns the descriptor the image was created with.
func (r *Registry) DescriptorOn(_ gpucore.Device, id gpucore.ImageID) (gpucore.TextureDescriptor, bool) {
	e, ok := r.images[id]
	return e.desc, ok
}

// LenOn returns the number of live images.
func (r *Registry) LenOn(gpucore.Device) int {
	return len(r.images)
}

// Len returns the number of live images, measured on the worker.
func (r *Registry) Len(ctx context.Context) (int, error) {
	return executor.Call(r.exec, func(_ context.Context, dev gpucore.Device) (int, error) {
		return r.LenOn(dev), nil
	}).Get(ctx)
}

// Apply binds the image as the current texture of b's context. Unlike
// the other methods it runs on the caller's goroutine and does not touch
// the registry map, so it may be used from a render thread.
func Apply(b gpucore.ImageBinder, id gpucore.ImageID) error {
	if id == gpucore.InvalidID {
		return fmt.Errorf("%w: %d", ErrUnknownImage, id)
	}
	return b.BindImage(id)
}
