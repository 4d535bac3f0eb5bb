package striplayer

import (
	"context"
	"image"
	"sync/atomic"

	"github.com/gogpu/striplayer/executor"
)

type actionKind uint8

const (
	actionSetOrigin actionKind = iota + 1
	actionSetResolution
)

// action is one queued property change.
type action struct {
	kind       actionKind
	origin     image.Point
	resolution float32
}

// apply runs on the worker, which is the only writer of the view.
func (l *Layer) apply(a action) {
	v := *l.view.Load()
	switch a.kind {
	case actionSetOrigin:
		v.origin = a.origin
	case actionSetResolution:
		v.resolution = a.resolution
	}
	l.view.Store(&v)
}

// Commit tracks the work submitted by Transaction.End.
type Commit struct {
	swap    *executor.Handle
	applied chan struct{}
	swapped atomic.Int32
}

// Wait blocks until the swap has run and the transaction's property
// changes have been applied, or ctx is done.
func (c *Commit) Wait(ctx context.Context) error {
	if err := c.swap.Wait(ctx); err != nil {
		return err
	}
	select {
	case <-c.applied:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Swapped returns how many strips the swap task exchanged. It is valid
// once Wait has returned nil.
func (c *Commit) Swapped() int {
	return int(c.swapped.Load())
}
