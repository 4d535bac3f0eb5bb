// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/striplayer/gpucore"
)

// ErrNoImageBound is returned by DrawTexture before any BindImage.
var ErrNoImageBound = errors.New("wgpu: no image bound")

// Compositor draws a texture view inside the host's render pass. desc is
// the descriptor the texture was created with; its size and filters
// decide texture coordinates and sampling. See [TexCoords].
type Compositor interface {
	DrawTextureView(view hal.TextureView, desc gpucore.TextureDescriptor, crop gpucore.Crop, dst gpucore.DrawRect) error
}

// Canvas adapts a Compositor to gpucore.Canvas. It is used from the host's
// render goroutine only.
type Canvas struct {
	parent *Parent
	comp   Compositor
	bound  *resource
}

var _ gpucore.Canvas = (*Canvas)(nil)

// BindImage selects the image used by subsequent draws.
func (c *Canvas) BindImage(id gpucore.ImageID) error {
	t, err := c.parent.image(id)
	if err != nil {
		return err
	}
	c.bound = t
	return nil
}

// DrawTexture forwards the draw with the bound image's view.
func (c *Canvas) DrawTexture(crop gpucore.Crop, dst gpucore.DrawRect) error {
	if c.bound == nil {
		return ErrNoImageBound
	}
	return c.comp.DrawTextureView(c.bound.view, c.bound.desc, crop, dst)
}

// TexCoords converts crop into normalized coordinates for a texture of
// the given size, in the order top-left u, v then bottom-right u, v of
// the destination rectangle. Uploaded row 0 is at v = 0, so the flipped
// crop {0, h, w, -h} maps the destination top to v = 0.
func TexCoords(crop gpucore.Crop, width, height int) (u0, v0, u1, v1 float32) {
	if width <= 0 || height <= 0 {
		return 0, 0, 0, 0
	}
	first, count := crop.Rows()
	u0 = float32(crop.X) / float32(width)
	u1 = float32(crop.X+crop.W) / float32(width)
	low := float32(first) / float32(height)
	high := float32(first+count) / float32(height)
	if crop.Flipped() {
		return u0, low, u1, high
	}
	return u0, high, u1, low
}
