package gpucore

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Resource IDs
//
// These opaque IDs represent GPU resources. Each backend maintains a
// mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// TextureID is an opaque handle to a GPU texture owned by one context.
type TextureID uint64

// ImageID is an opaque handle to a shareable image wrapping a texture.
// Unlike a TextureID it can be bound from any context sharing resources
// with the context that produced it.
type ImageID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// PixelFormat describes the memory layout of source pixels and of the
// textures they are uploaded into.
type PixelFormat uint8

// Pixel formats.
const (
	// PixelFormatUnknown is the zero value. Sources reporting it cannot be tiled.
	PixelFormatUnknown PixelFormat = iota

	// PixelFormatRGBA8 is 8-bit RGBA, 4 bytes per pixel.
	PixelFormatRGBA8

	// PixelFormatBGRA8 is 8-bit BGRA, 4 bytes per pixel.
	PixelFormatBGRA8

	// PixelFormatA8 is a single 8-bit alpha channel.
	PixelFormatA8
)

// String returns a human-readable name for the format.
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatRGBA8:
		return "RGBA8"
	case PixelFormatBGRA8:
		return "BGRA8"
	case PixelFormatA8:
		return "A8"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// BytesPerPixel returns the number of bytes per pixel for the format,
// or 0 for an unknown format.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatRGBA8, PixelFormatBGRA8:
		return 4
	case PixelFormatA8:
		return 1
	default:
		return 0
	}
}

// TextureFormat converts to the matching gputypes.TextureFormat.
func (f PixelFormat) TextureFormat() gputypes.TextureFormat {
	switch f {
	case PixelFormatRGBA8:
		return gputypes.TextureFormatRGBA8Unorm
	case PixelFormatBGRA8:
		return gputypes.TextureFormatBGRA8Unorm
	case PixelFormatA8:
		return gputypes.TextureFormatR8Unorm
	default:
		return gputypes.TextureFormatUndefined
	}
}

// FilterMode selects how texels are sampled when a texture is scaled.
type FilterMode uint8

// Filter modes.
const (
	FilterNearest FilterMode = iota
	FilterLinear
)

// TextureDescriptor describes a 2D texture to allocate.
type TextureDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Width and Height are the texture size in texels.
	Width  int
	Height int

	// Format is the texel format; uploads must use the same layout.
	Format PixelFormat

	// MinFilter and MagFilter control sampling when the texture is
	// minified or magnified. Wrapping is always clamp-to-edge.
	MinFilter FilterMode
	MagFilter FilterMode
}

// SizeBytes returns the number of bytes a full upload of the texture needs.
func (d TextureDescriptor) SizeBytes() int {
	return d.Width * d.Height * d.Format.BytesPerPixel()
}

// Validate reports whether the descriptor can be allocated.
func (d TextureDescriptor) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, d.Width, d.Height)
	}
	if d.Format.BytesPerPixel() == 0 {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, d.Format)
	}
	return nil
}
