package gpucore

// RectF is an axis-aligned rectangle in floating point pixel units.
type RectF struct {
	Left, Top, Right, Bottom float32
}

// Width returns the horizontal extent of the rectangle.
func (r RectF) Width() float32 { return r.Right - r.Left }

// Height returns the vertical extent of the rectangle.
func (r RectF) Height() float32 { return r.Bottom - r.Top }

// Empty reports whether the rectangle has no area.
func (r RectF) Empty() bool { return r.Right <= r.Left || r.Bottom <= r.Top }

// SizeF is a floating point width/height pair.
type SizeF struct {
	Width, Height float32
}

// Crop selects the texel region of the bound texture to draw.
//
// Coordinates follow the GPU convention where texel row 0 is the bottom
// of the texture. H may be negative: {0, h, w, -h} walks the rows from
// h down to 0, which displays a top-left-origin upload upright.
type Crop struct {
	X, Y, W, H int
}

// Flipped reports whether the crop walks rows downwards.
func (c Crop) Flipped() bool { return c.H < 0 }

// Rows returns the lowest texel row and the number of rows the crop covers.
func (c Crop) Rows() (first, count int) {
	if c.H < 0 {
		return c.Y + c.H, -c.H
	}
	return c.Y, c.H
}

// DrawRect is a destination rectangle in window coordinates with the
// origin at the bottom-left corner of the viewport.
type DrawRect struct {
	X, Y, W, H float32
}
