// Package backend selects the GPU implementation that executor workers
// share resources with.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// Import the implementations you want available:
//
//	import (
//		_ "github.com/gogpu/striplayer/backend/software"
//		_ "github.com/gogpu/striplayer/backend/wgpu"
//	)
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	// Prefer the host GPU, fall back to the CPU emulation
//	parent, name, err := backend.Default(backend.Options{Provider: provider})
//
//	// Or request a specific backend
//	parent, err := backend.Get("software", backend.Options{})
//
// The returned [gpucore.Parent] is handed to executor.New.
//
// # Available Backends
//
//   - "wgpu": hal textures on the device of a gpucontext.DeviceProvider
//   - "software": CPU emulation of a shared-context GPU (always available)
package backend
