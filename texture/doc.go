// Package texture keeps track of the shareable images produced on an
// executor worker and the textures that back them.
//
// Images are created, updated and destroyed on the worker thread. The
// render thread only ever sees image IDs, which it binds with [Apply].
package texture
