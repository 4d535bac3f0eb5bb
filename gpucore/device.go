package gpucore

import "errors"

// Common errors returned by backends.
var (
	// ErrInvalidDimensions is returned when a texture or surface size is not positive.
	ErrInvalidDimensions = errors.New("gpucore: invalid dimensions")

	// ErrUnsupportedFormat is returned for pixel formats a backend cannot store.
	ErrUnsupportedFormat = errors.New("gpucore: unsupported pixel format")

	// ErrUnknownTexture is returned when a TextureID does not name a live texture.
	ErrUnknownTexture = errors.New("gpucore: unknown texture")

	// ErrUnknownImage is returned when an ImageID does not name a live image.
	ErrUnknownImage = errors.New("gpucore: unknown image")

	// ErrUploadSize is returned when upload data does not match the texture size.
	ErrUploadSize = errors.New("gpucore: upload size mismatch")

	// ErrContextLost is returned by every operation on a released context.
	ErrContextLost = errors.New("gpucore: context released")
)

// Parent is a caller-owned GPU context that worker contexts share
// resources with. The strip engine never creates the on-screen context;
// it only derives off-screen contexts from a Parent.
type Parent interface {
	// NewSharedContext creates a context whose textures and images are
	// visible to the parent and to every other context of the same parent.
	NewSharedContext() (Context, error)
}

// Context is a GPU context driven from a single goroutine.
//
// A Context is not safe for concurrent use. The executor locks its worker
// goroutine to an OS thread and issues every call from there.
type Context interface {
	Device

	// CreateOffscreenSurface creates a small drawable the context can be
	// made current against.
	CreateOffscreenSurface(width, height int) (Surface, error)

	// MakeCurrent binds the context and surface to the calling thread.
	MakeCurrent(s Surface) error

	// Release destroys the context. The surface must be released first.
	Release()
}

// Surface is an off-screen drawable.
type Surface interface {
	Release()
}

// Device is the set of texture operations issued on a current context.
// Every method must be called from the thread the context is current on.
type Device interface {
	// CreateTexture allocates a texture. Its contents are undefined until
	// the first upload.
	CreateTexture(desc TextureDescriptor) (TextureID, error)

	// UploadTexture replaces the full contents of the texture. data holds
	// rows top to bottom in the texture's format with no row padding; row
	// 0 of data becomes texel row 0.
	UploadTexture(id TextureID, data []byte) error

	// DestroyTexture frees the texture. Unknown IDs are ignored.
	DestroyTexture(id TextureID)

	// ExportImage wraps the texture as an image other contexts can bind.
	ExportImage(id TextureID) (ImageID, error)

	// ReleaseImage drops the shareable wrapper. The texture stays alive.
	ReleaseImage(id ImageID)

	// Finish blocks until all previously issued commands have completed.
	Finish() error
}

// ImageBinder binds an exported image as the current texture of the
// calling thread's context.
type ImageBinder interface {
	BindImage(id ImageID) error
}

// Canvas is the render thread's drawing target.
type Canvas interface {
	ImageBinder

	// DrawTexture draws the crop region of the currently bound image into
	// dst. dst is in window coordinates with the origin at the bottom-left.
	DrawTexture(crop Crop, dst DrawRect) error
}
