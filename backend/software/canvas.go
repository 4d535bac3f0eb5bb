// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/striplayer/gpucore"
)

// ErrNoImageBound is returned by DrawTexture before any BindImage.
var ErrNoImageBound = errors.New("software: no image bound")

// Canvas is a render thread target. It binds exported images and draws
// them into an RGBA framebuffer whose origin for drawing purposes is the
// bottom-left corner.
//
// A Canvas is not safe for concurrent use, like the on-screen context
// it stands in for.
type Canvas struct {
	parent *Parent
	fb     *image.RGBA

	bound     gpucore.ImageID
	boundDesc gpucore.TextureDescriptor
	boundPix  []byte
	draws     int
}

var _ gpucore.Canvas = (*Canvas)(nil)

func newCanvas(p *Parent, width, height int) *Canvas {
	return &Canvas{
		parent: p,
		fb:     image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Image returns the framebuffer. Row 0 is the top of the window.
func (c *Canvas) Image() *image.RGBA {
	return c.fb
}

// Clear fills the framebuffer with col.
func (c *Canvas) Clear(col color.Color) {
	xdraw.Draw(c.fb, c.fb.Bounds(), image.NewUniform(col), image.Point{}, xdraw.Src)
}

// Draws returns the number of successful DrawTexture calls.
func (c *Canvas) Draws() int {
	return c.draws
}

// BindImage makes id the texture used by subsequent draws. The pixels
// are captured at bind time.
func (c *Canvas) BindImage(id gpucore.ImageID) error {
	desc, pix, err := c.parent.image(id)
	if err != nil {
		return err
	}
	c.bound = id
	c.boundDesc = desc
	c.boundPix = pix
	return nil
}

// DrawTexture draws the crop region of the bound image into dst.
//
// Texel row 0 is the bottom of the texture. A crop with negative height
// runs from the top of the destination at texel row Y+H down to row Y at
// the bottom, which shows a top-left-origin upload upright.
func (c *Canvas) DrawTexture(crop gpucore.Crop, dst gpucore.DrawRect) error {
	if c.bound == gpucore.InvalidID {
		return ErrNoImageBound
	}
	src, err := c.cropImage(crop)
	if err != nil {
		return err
	}

	fbH := float32(c.fb.Bounds().Dy())
	top := fbH - (dst.Y + dst.H)
	r := image.Rect(
		round(dst.X), round(top),
		round(dst.X+dst.W), round(top+dst.H),
	)
	if r.Empty() {
		return nil
	}

	scaler := c.scaler(src.Bounds(), r)
	scaler.Scale(c.fb, r, src, src.Bounds(), xdraw.Src, nil)
	c.draws++
	return nil
}

// scaler picks the interpolator from the texture's filters.
func (c *Canvas) scaler(src, dst image.Rectangle) xdraw.Scaler {
	filter := c.boundDesc.MagFilter
	if dst.Dx()*dst.Dy() < src.Dx()*src.Dy() {
		filter = c.boundDesc.MinFilter
	}
	if filter == gpucore.FilterLinear {
		return xdraw.ApproxBiLinear
	}
	return xdraw.NearestNeighbor
}

// cropImage converts the crop region of the bound texture to an RGBA
// image with row 0 at the top.
func (c *Canvas) cropImage(crop gpucore.Crop) (*image.RGBA, error) {
	d := c.boundDesc
	first, count := crop.Rows()
	if crop.W <= 0 || count <= 0 ||
		crop.X < 0 || crop.X+crop.W > d.Width ||
		first < 0 || first+count > d.Height {
		return nil, fmt.Errorf("software: crop %+v outside %dx%d texture", crop, d.Width, d.Height)
	}

	bpp := d.Format.BytesPerPixel()
	stride := d.Width * bpp
	out := image.NewRGBA(image.Rect(0, 0, crop.W, count))
	for i := range count {
		row := first + count - 1 - i
		if crop.Flipped() {
			row = first + i
		}
		src := c.boundPix[row*stride+crop.X*bpp : row*stride+(crop.X+crop.W)*bpp]
		dst := out.Pix[i*out.Stride : i*out.Stride+crop.W*4]
		convertRow(dst, src, d.Format)
	}
	return out, nil
}

// convertRow expands one texel row to RGBA8.
func convertRow(dst, src []byte, f gpucore.PixelFormat) {
	switch f {
	case gpucore.PixelFormatRGBA8:
		copy(dst, src)
	case gpucore.PixelFormatBGRA8:
		for i := 0; i+3 < len(src); i += 4 {
			dst[i+0] = src[i+2]
			dst[i+1] = src[i+1]
			dst[i+2] = src[i+0]
			dst[i+3] = src[i+3]
		}
	case gpucore.PixelFormatA8:
		for i, a := range src {
			dst[4*i+0] = a
			dst[4*i+1] = a
			dst[4*i+2] = a
			dst[4*i+3] = a
		}
	}
}

func round(v float32) int {
	return int(math.Round(float64(v)))
}
