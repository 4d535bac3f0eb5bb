package striplayer

import "github.com/gogpu/striplayer/gpucore"

// DefaultMaxTextureBytes is the largest texture a layer allocates.
const DefaultMaxTextureBytes = 1024 * 512 * 2

// Option configures a Layer during creation.
//
// Example:
//
//	layer, err := striplayer.NewLayer(exec, src,
//		striplayer.WithMaxTextureBytes(4<<20),
//		striplayer.WithLabel("page"))
type Option func(*layerOptions)

// layerOptions holds optional configuration for Layer creation.
type layerOptions struct {
	maxTextureBytes int
	label           string
	minFilter       gpucore.FilterMode
	magFilter       gpucore.FilterMode
}

// defaultOptions returns the default layer options.
func defaultOptions() layerOptions {
	return layerOptions{
		maxTextureBytes: DefaultMaxTextureBytes,
		label:           "layer",
		minFilter:       gpucore.FilterNearest,
		magFilter:       gpucore.FilterLinear,
	}
}

// WithMaxTextureBytes sets the byte budget of a single strip texture.
// The strip count is the image size divided by n, rounded up.
// Non-positive values keep the default.
func WithMaxTextureBytes(n int) Option {
	return func(o *layerOptions) {
		if n > 0 {
			o.maxTextureBytes = n
		}
	}
}

// WithLabel sets the prefix of texture debug labels and log attributes.
func WithLabel(label string) Option {
	return func(o *layerOptions) {
		o.label = label
	}
}

// WithFilters sets the minification and magnification filters of the
// strip textures. The default is nearest for minification and linear for
// magnification.
func WithFilters(minFilter, magFilter gpucore.FilterMode) Option {
	return func(o *layerOptions) {
		o.minFilter = minFilter
		o.magFilter = magFilter
	}
}
