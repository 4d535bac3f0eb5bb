package striplayer

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/striplayer/executor"
	"github.com/gogpu/striplayer/gpucore"
	"github.com/gogpu/striplayer/texture"
)

// stripSet is an immutable strip layout. A new set replaces the old one
// when the source geometry changes.
type stripSet struct {
	geom       geometry
	bandHeight int
	strips     []*Strip
}

// Layer displays one Source as a column of strips whose textures are
// uploaded on an executor.
//
// Property changes go through a Transaction. Draw may be called from the
// render thread at any time and never waits for uploads.
type Layer struct {
	opts   layerOptions
	exec   *executor.Executor
	reg    *texture.Registry
	source Source

	// txMu is held for the lifetime of a transaction.
	txMu sync.Mutex

	strips atomic.Pointer[stripSet]
	view   atomic.Pointer[view]
	closed atomic.Bool
}

// NewLayer creates a layer for src whose GPU work runs on exec. The
// strips are created immediately, all dirty; the first transaction
// uploads them.
func NewLayer(exec *executor.Executor, src Source, opts ...Option) (*Layer, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	if exec == nil {
		return nil, errors.New("striplayer: nil executor")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	frame := src.Frame()
	if err := frame.Validate(); err != nil {
		return nil, err
	}

	l := &Layer{
		opts:   o,
		exec:   exec,
		reg:    texture.NewRegistry(exec),
		source: src,
	}
	l.view.Store(&view{resolution: 1})
	set := l.buildStrips(frame.geometry())
	l.strips.Store(set)

	Logger().Info("striplayer: layer created",
		"label", o.label,
		"size", fmt.Sprintf("%dx%d", frame.Width, frame.Height),
		"format", frame.Format,
		"strips", len(set.strips))
	return l, nil
}

func (l *Layer) buildStrips(g geometry) *stripSet {
	bands := computeBands(g, l.opts.maxTextureBytes)
	set := &stripSet{geom: g, strips: make([]*Strip, len(bands))}
	if len(bands) > 0 {
		set.bandHeight = bands[0].height
	}
	for i, b := range bands {
		set.strips[i] = newStrip(l, i, b, g)
	}
	return set
}

// syncStrips recreates the strips if the source geometry changed since
// they were built. Called with txMu held.
func (l *Layer) syncStrips() *stripSet {
	cur := l.strips.Load()
	g := l.source.Frame().geometry()
	if cur.geom == g {
		return cur
	}

	for _, s := range cur.strips {
		s.dispose()
	}
	set := l.buildStrips(g)
	l.strips.Store(set)
	Logger().Debug("striplayer: strips recreated",
		"label", l.opts.label,
		"size", fmt.Sprintf("%dx%d", g.width, g.height),
		"format", g.format,
		"strips", len(set.strips))
	return set
}

// BeginTransaction opens a transaction, waiting for any other open
// transaction to end. Calling it again from the goroutine that holds an
// open transaction deadlocks, like re-locking a sync.Mutex.
func (l *Layer) BeginTransaction() *Transaction {
	l.txMu.Lock()
	return &Transaction{layer: l}
}

// TryBeginTransaction opens a transaction only if none is open.
func (l *Layer) TryBeginTransaction() (*Transaction, bool) {
	if !l.txMu.TryLock() {
		return nil, false
	}
	return &Transaction{layer: l}, true
}

// Invalidate marks every strip dirty.
func (l *Layer) Invalidate() {
	for _, s := range l.strips.Load().strips {
		s.invalidate()
	}
}

// InvalidateRect marks dirty the strips covering the rows of r. Only the
// vertical extent of r matters; rows outside the image are ignored.
func (l *Layer) InvalidateRect(r image.Rectangle) {
	set := l.strips.Load()
	first, last, ok := bandRange(r.Min.Y, r.Max.Y, set.bandHeight, len(set.strips))
	if !ok {
		return
	}
	for i := first; i <= last; i++ {
		set.strips[i].invalidate()
	}
}

// Draw blits every strip that has completed an upload. Strips are drawn
// independently; errors from all of them are joined.
func (l *Layer) Draw(rc RenderContext) error {
	set := l.strips.Load()
	if len(set.strips) == 0 {
		return nil
	}
	if rc.Canvas == nil {
		return ErrNoCanvas
	}
	v := *l.view.Load()

	var errs []error
	for _, s := range set.strips {
		if err := s.draw(rc, v); err != nil {
			errs = append(errs, fmt.Errorf("%v: %w", s, err))
		}
	}
	return errors.Join(errs...)
}

// Origin returns the layer origin in layer pixels.
func (l *Layer) Origin() image.Point {
	return l.view.Load().origin
}

// Resolution returns the resolution the layer content was rendered at.
func (l *Layer) Resolution() float32 {
	return l.view.Load().resolution
}

// Bounds maps r, given in layer pixels, to page pixels using the current
// origin and resolution and the zoom factor of rc.
func (l *Layer) Bounds(rc RenderContext, r gpucore.RectF) gpucore.RectF {
	return l.view.Load().bounds(rc.ZoomFactor, r)
}

// Strips returns the current strips, ordered by offset.
func (l *Layer) Strips() []*Strip {
	set := l.strips.Load()
	out := make([]*Strip, len(set.strips))
	copy(out, set.strips)
	return out
}

// Executor returns the executor the layer uploads on.
func (l *Layer) Executor() *executor.Executor {
	return l.exec
}

// Close disposes every strip. The textures are freed by tasks on the
// executor; call Executor().Flush to wait for them. Later transactions
// fail with ErrLayerClosed. Close waits for an open transaction to end.
func (l *Layer) Close() error {
	l.txMu.Lock()
	defer l.txMu.Unlock()
	if l.closed.Swap(true) {
		return nil
	}

	cur := l.strips.Load()
	for _, s := range cur.strips {
		s.dispose()
	}
	l.strips.Store(&stripSet{geom: cur.geom})
	Logger().Info("striplayer: layer closed", "label", l.opts.label)
	return nil
}
