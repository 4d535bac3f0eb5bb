// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package executor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// Errors reported through task handles.
var (
	// ErrClosed is returned for tasks submitted after Shutdown.
	ErrClosed = errors.New("executor: closed")

	// ErrInitFailed is returned for every task when the worker context
	// could not be created or made current.
	ErrInitFailed = errors.New("executor: worker context initialization failed")

	// ErrCanceled is returned for tasks canceled before they started, and
	// for running tasks that stopped because of a cancellation request.
	ErrCanceled = errors.New("executor: task canceled")
)

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("executor: task panicked: %v", e.Value)
}

// Task states.
const (
	statePending int32 = iota
	stateRunning
	stateDone
)

// Handle is the completion handle of a submitted task.
//
// A Handle is safe for concurrent use. Its result becomes visible once
// Done is closed.
type Handle struct {
	seq    uint64
	fn     Task
	ctx    context.Context
	cancel context.CancelFunc

	state atomic.Int32
	done  chan struct{}
	err   error
}

func newHandle(parent context.Context, seq uint64, fn Task) *Handle {
	ctx, cancel := context.WithCancel(parent)
	return &Handle{
		seq:    seq,
		fn:     fn,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// failedHandle returns an already completed handle carrying err.
func failedHandle(err error) *Handle {
	h := &Handle{done: make(chan struct{}), cancel: func() {}}
	h.state.Store(stateDone)
	h.finish(err)
	return h
}

// finish publishes the result. It must be called exactly once, by the
// party that moved the handle into stateDone.
func (h *Handle) finish(err error) {
	h.err = err
	h.cancel()
	close(h.done)
}

// Done returns a channel that is closed when the task has completed,
// failed, or been canceled.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the task's result, or nil while it has not completed.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// IsDone reports whether the task has completed.
func (h *Handle) IsDone() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Canceled reports whether the task ended because of Cancel.
func (h *Handle) Canceled() bool {
	return errors.Is(h.Err(), ErrCanceled)
}

// Wait blocks until the task completes or ctx is done.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel requests that the task not run.
//
// A task that has not started yet is resolved with ErrCanceled and will
// never run; Cancel returns true. A running task sees its context
// canceled and may stop early; Cancel returns false. Cancelling a
// completed task has no effect.
func (h *Handle) Cancel() bool {
	if h.state.CompareAndSwap(statePending, stateDone) {
		h.finish(ErrCanceled)
		return true
	}
	if h.state.Load() == stateRunning {
		h.cancel()
	}
	return false
}

// start moves a pending handle to running. It fails if the handle was
// canceled in the meantime.
func (h *Handle) start() bool {
	return h.state.CompareAndSwap(statePending, stateRunning)
}

// complete resolves a running handle.
func (h *Handle) complete(err error) {
	if err != nil && h.ctx.Err() != nil && errors.Is(err, context.Canceled) {
		err = fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	h.state.Store(stateDone)
	h.finish(err)
}
