package backend

import (
	"errors"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/striplayer/gpucore"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNoProvider is returned by backends that need a host device but
	// were given no Options.Provider.
	ErrNoProvider = errors.New("backend: no device provider")
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU emulation backend.
	BackendSoftware = "software"
	// BackendWGPU is the name of the hal backend that shares a host device.
	BackendWGPU = "wgpu"
)

// Options are passed to a backend factory.
type Options struct {
	// Provider supplies the host's device and queue. GPU backends share
	// resources with it; the software backend ignores it.
	Provider gpucontext.DeviceProvider

	// Label is an optional debug label for the parent context.
	Label string
}

// Factory creates the parent context that executor workers derive their
// shared contexts from.
type Factory func(opts Options) (gpucore.Parent, error)
