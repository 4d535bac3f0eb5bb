package striplayer

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/striplayer/executor"
	"github.com/gogpu/striplayer/gpucore"
)

// Transaction batches property changes to a layer. Only one transaction
// per layer is open at a time; it must be ended with End or Discard.
//
// A Transaction belongs to the goroutine that opened it.
type Transaction struct {
	layer   *Layer
	actions []action
	done    bool
}

// SetOrigin queues an origin change. It takes effect after the buffers
// of this transaction have been swapped.
func (tx *Transaction) SetOrigin(p image.Point) error {
	if tx.done {
		return ErrTransactionDone
	}
	tx.actions = append(tx.actions, action{kind: actionSetOrigin, origin: p})
	return nil
}

// SetResolution queues a resolution change. It takes effect after the
// buffers of this transaction have been swapped.
func (tx *Transaction) SetResolution(r float32) error {
	if tx.done {
		return ErrTransactionDone
	}
	if !(r > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidResolution, r)
	}
	tx.actions = append(tx.actions, action{kind: actionSetResolution, resolution: r})
	return nil
}

// Invalidate marks every strip dirty.
func (tx *Transaction) Invalidate() error {
	if tx.done {
		return ErrTransactionDone
	}
	tx.layer.Invalidate()
	return nil
}

// InvalidateRect marks the strips covering r dirty.
func (tx *Transaction) InvalidateRect(r image.Rectangle) error {
	if tx.done {
		return ErrTransactionDone
	}
	tx.layer.InvalidateRect(r)
	return nil
}

// Discard drops the queued changes and closes the transaction.
// Invalidations already made stay in effect.
func (tx *Transaction) Discard() {
	if tx.done {
		return
	}
	tx.done = true
	tx.actions = nil
	tx.layer.txMu.Unlock()
}

// End closes the transaction.
//
// It recreates the strips if the source geometry changed, schedules an
// upload for every dirty strip, then submits one task that swaps all
// strips whose upload completed and afterwards applies the queued
// changes. Because the executor is FIFO, uploads scheduled here finish
// before that swap, and the changes land after it.
//
// End does not wait. The returned Commit resolves once the changes are
// applied.
func (tx *Transaction) End() (*Commit, error) {
	if tx.done {
		return nil, ErrTransactionDone
	}
	tx.done = true
	l := tx.layer
	defer l.txMu.Unlock()

	if l.closed.Load() {
		return nil, ErrLayerClosed
	}

	set := l.syncStrips()
	scheduled := 0
	for _, s := range set.strips {
		if s.scheduleUploadIfNecessary() {
			scheduled++
		}
	}

	actions := tx.actions
	tx.actions = nil
	c := &Commit{applied: make(chan struct{})}
	c.swap = l.exec.Submit(func(context.Context, gpucore.Device) error {
		return l.commitOn(set, actions, c)
	})

	Logger().Debug("striplayer: transaction ended",
		"label", l.opts.label, "uploads", scheduled, "actions", len(actions))
	return c, nil
}

// commitOn is the swap task of a transaction. The actions are submitted
// as separate tasks, so other work already queued runs between the swap
// and the property changes.
func (l *Layer) commitOn(set *stripSet, actions []action, c *Commit) error {
	swapped := 0
	for _, s := range set.strips {
		if s.swapBuffersIfNecessary() {
			swapped++
		}
	}
	c.swapped.Store(int32(swapped))
	if swapped > 0 {
		Logger().Debug("striplayer: buffers swapped", "label", l.opts.label, "strips", swapped)
	}

	for _, a := range actions {
		h := l.exec.Submit(func(context.Context, gpucore.Device) error {
			l.apply(a)
			return nil
		})
		if errors.Is(h.Err(), executor.ErrClosed) {
			return h.Err()
		}
	}
	marker := l.exec.Submit(func(context.Context, gpucore.Device) error {
		close(c.applied)
		return nil
	})
	return marker.Err()
}
