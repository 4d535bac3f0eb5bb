package striplayer

import (
	"image"

	"github.com/gogpu/striplayer/gpucore"
)

// RenderContext describes the frame being drawn.
type RenderContext struct {
	// Viewport is the visible region in page pixels.
	Viewport gpucore.RectF

	// PageSize is the size of the whole page in page pixels.
	PageSize gpucore.SizeF

	// ZoomFactor scales layer content into page pixels.
	ZoomFactor float32

	// Canvas is the render thread's drawing target.
	Canvas gpucore.Canvas
}

// view is the layer state that transactions change.
type view struct {
	origin     image.Point
	resolution float32
}

// bounds maps a rect in layer pixels to page pixels. The scale is the
// zoom factor divided by the resolution the layer was rendered at.
func (v view) bounds(zoom float32, r gpucore.RectF) gpucore.RectF {
	scale := zoom / v.resolution
	x := (r.Left + float32(v.origin.X)) * scale
	y := (r.Top + float32(v.origin.Y)) * scale
	return gpucore.RectF{
		Left:   x,
		Top:    y,
		Right:  x + r.Width()*scale,
		Bottom: y + r.Height()*scale,
	}
}

// destination converts page bounds to a bottom-left-origin rectangle
// relative to the viewport.
func destination(vp, b gpucore.RectF) gpucore.DrawRect {
	h := b.Height()
	return gpucore.DrawRect{
		X: b.Left - vp.Left,
		Y: vp.Height() - (b.Top + h - vp.Top),
		W: b.Width(),
		H: h,
	}
}
