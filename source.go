package striplayer

import (
	"fmt"
	"image"
	"sync"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/striplayer/gpucore"
)

// Frame is one immutable snapshot of a source image. Rows are stored top
// to bottom with no padding between them.
type Frame struct {
	Width  int
	Height int
	Format gpucore.PixelFormat
	Pix    []byte
}

// RowBytes returns the size of one row in bytes.
func (f Frame) RowBytes() int {
	return f.Width * f.Format.BytesPerPixel()
}

// SizeBytes returns the size of the whole image in bytes.
func (f Frame) SizeBytes() int {
	return f.RowBytes() * f.Height
}

// Empty reports whether the frame has no pixels.
func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0 || f.Format.BytesPerPixel() == 0
}

// Validate reports whether Pix covers the declared geometry.
func (f Frame) Validate() error {
	if f.Width < 0 || f.Height < 0 {
		return fmt.Errorf("%w: negative size %dx%d", ErrInvalidFrame, f.Width, f.Height)
	}
	if f.Width > 0 && f.Height > 0 && f.Format.BytesPerPixel() == 0 {
		return fmt.Errorf("%w: unsupported format %v", ErrInvalidFrame, f.Format)
	}
	if f.Empty() {
		return nil
	}
	if len(f.Pix) < f.SizeBytes() {
		return fmt.Errorf("%w: %d bytes for %dx%d %v", ErrInvalidFrame, len(f.Pix), f.Width, f.Height, f.Format)
	}
	return nil
}

// Rows returns the bytes of height rows starting at row offset.
func (f Frame) Rows(offset, height int) ([]byte, error) {
	if offset < 0 || height <= 0 || offset+height > f.Height {
		return nil, fmt.Errorf("%w: rows %d+%d outside height %d", ErrInvalidFrame, offset, height, f.Height)
	}
	start := offset * f.RowBytes()
	end := start + height*f.RowBytes()
	if end > len(f.Pix) {
		return nil, fmt.Errorf("%w: rows %d+%d need %d bytes, have %d", ErrInvalidFrame, offset, height, end, len(f.Pix))
	}
	return f.Pix[start:end:end], nil
}

func (f Frame) geometry() geometry {
	return geometry{width: f.Width, height: f.Height, format: f.Format}
}

// Source supplies the pixels a layer displays. Frame is called from the
// executor worker while uploading and from the transaction owner; it must
// be safe for concurrent use and must not modify a returned Pix later.
type Source interface {
	Frame() Frame
}

// BufferSource is a Source holding one frame that can be swapped
// wholesale. Uploads in flight keep reading the frame they started with.
type BufferSource struct {
	mu    sync.RWMutex
	frame Frame
}

// NewBufferSource returns a zero-filled source of the given geometry.
func NewBufferSource(width, height int, format gpucore.PixelFormat) *BufferSource {
	f := Frame{Width: width, Height: height, Format: format}
	if !f.Empty() {
		f.Pix = make([]byte, f.SizeBytes())
	}
	return &BufferSource{frame: f}
}

// NewImageSource returns a source initialized from img.
func NewImageSource(img image.Image) *BufferSource {
	return &BufferSource{frame: FrameFromImage(img)}
}

// Frame returns the current frame.
func (s *BufferSource) Frame() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// Replace installs f as the current frame. The caller must not modify
// f.Pix afterwards. Changing the geometry makes the next transaction
// recreate the layer's strips.
func (s *BufferSource) Replace(f Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.frame = f
	s.mu.Unlock()
	return nil
}

// ReplaceImage installs a frame converted from img.
func (s *BufferSource) ReplaceImage(img image.Image) {
	f := FrameFromImage(img)
	s.mu.Lock()
	s.frame = f
	s.mu.Unlock()
}

// FrameFromImage copies img into a tightly packed frame. *image.Alpha
// becomes A8; everything else is converted to premultiplied RGBA8.
func FrameFromImage(img image.Image) Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if a, ok := img.(*image.Alpha); ok {
		pix := make([]byte, w*h)
		for y := range h {
			off := a.PixOffset(b.Min.X, b.Min.Y+y)
			copy(pix[y*w:(y+1)*w], a.Pix[off:off+w])
		}
		return Frame{Width: w, Height: h, Format: gpucore.PixelFormatA8, Pix: pix}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return Frame{Width: w, Height: h, Format: gpucore.PixelFormatRGBA8, Pix: dst.Pix}
}
