package striplayer

import "errors"

// Errors returned by layers and transactions.
var (
	// ErrTransactionDone is returned when a transaction is used after End
	// or Discard.
	ErrTransactionDone = errors.New("striplayer: transaction already ended")

	// ErrLayerClosed is returned by transactions on a closed layer.
	ErrLayerClosed = errors.New("striplayer: layer closed")

	// ErrNilSource is returned by NewLayer without a source.
	ErrNilSource = errors.New("striplayer: nil source")

	// ErrInvalidFrame is returned for frames whose buffer does not cover
	// their declared geometry.
	ErrInvalidFrame = errors.New("striplayer: invalid frame")

	// ErrInvalidResolution is returned for non-positive resolutions.
	ErrInvalidResolution = errors.New("striplayer: resolution must be positive")

	// ErrNoCanvas is returned by Draw when the render context has no canvas.
	ErrNoCanvas = errors.New("striplayer: render context has no canvas")

	// errGeometryChanged fails an upload whose strip no longer matches the
	// source; the next transaction recreates the strips.
	errGeometryChanged = errors.New("striplayer: source geometry changed")
)
