// Package gpucore provides the GPU abstractions shared by the strip layer,
// the executor, the texture registry and the backends.
//
// The interfaces mirror a context-per-thread graphics API:
//
//	               +-----------------+
//	               |     Parent      |  caller-owned (on-screen) context
//	               +--------+--------+
//	                        | NewSharedContext
//	               +--------v--------+
//	               |     Context     |  executor worker, off-screen surface
//	               |  (Device ops)   |
//	               +--------+--------+
//	                        | ExportImage
//	               +--------v--------+
//	               |     Canvas      |  render thread, BindImage + DrawTexture
//	               +-----------------+
//
// # Resource Management
//
// Textures are named by opaque [TextureID] values that are only
// meaningful inside the context that created them. A texture becomes
// usable from other contexts by exporting it as an [ImageID].
//
// # Coordinate Conventions
//
// Source buffers are top-left-origin. Textures and draw destinations use
// the GPU's bottom-left origin. [Crop] with a negative height expresses
// the vertical flip between the two, and [DrawRect] is always measured
// from the bottom-left corner of the viewport.
package gpucore
