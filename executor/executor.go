// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/gogpu/striplayer/gpucore"
)

var errNilParent = errors.New("executor: nil parent context")

// Task is a unit of GPU work run on the executor's worker thread.
//
// dev is the worker's current context. It must not be retained or used
// after the task returns. ctx is canceled when the task's handle is
// canceled; long tasks should check it between steps.
type Task func(ctx context.Context, dev gpucore.Device) error

// Executor runs tasks one at a time, in submission order, on a single
// OS thread that owns a GPU context sharing resources with a parent.
//
// Submit never blocks. The queue is unbounded so tasks may submit
// follow-up tasks to their own executor.
type Executor struct {
	opts options

	mu     sync.Mutex
	queue  []*Handle
	seq    uint64
	closed bool
	wake   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	ready   *Handle
	stopped chan struct{}

	// Owned by the worker goroutine.
	gpu     gpucore.Context
	surface gpucore.Surface
	initErr error
}

// New starts an executor whose worker context shares resources with
// parent.
//
// Context creation happens asynchronously on the worker as its first
// task. Its outcome is reported by Ready; when it fails, every later task
// completes with an error wrapping ErrInitFailed.
func New(parent gpucore.Parent, opts ...Option) *Executor {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Executor{
		opts:    o,
		wake:    make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
	e.ready = newHandle(ctx, 0, func(context.Context, gpucore.Device) error {
		return e.initialize(parent)
	})

	go e.run()
	return e
}

func (e *Executor) logger() *slog.Logger {
	if e.opts.logger != nil {
		return e.opts.logger
	}
	return slogger()
}

// Submit enqueues fn and returns its handle. After Shutdown the returned
// handle is already failed with ErrClosed.
func (e *Executor) Submit(fn Task) *Handle {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return failedHandle(ErrClosed)
	}
	e.seq++
	h := newHandle(e.ctx, e.seq, fn)
	e.queue = append(e.queue, h)
	e.mu.Unlock()

	e.signal()
	return h
}

func (e *Executor) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Ready returns the handle of the worker initialization task.
func (e *Executor) Ready() *Handle {
	return e.ready
}

// Err returns the initialization error, or nil if initialization
// succeeded or has not finished yet.
func (e *Executor) Err() error {
	return e.ready.Err()
}

// Flush blocks until every task submitted before the call has completed.
func (e *Executor) Flush(ctx context.Context) error {
	h := e.Submit(func(context.Context, gpucore.Device) error { return nil })
	return h.Wait(ctx)
}

// Pending returns the number of queued tasks that have not started.
func (e *Executor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Shutdown stops accepting tasks, runs the tasks already queued, releases
// the worker context on the worker thread, and waits for the worker to
// exit or ctx to be done. It is safe to call more than once.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.signal()

	select {
	case <-e.stopped:
		e.cancel()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the worker loop. The goroutine stays locked to one OS thread
// because the GPU context is bound to the thread that made it current.
func (e *Executor) run() {
	defer close(e.stopped)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if e.opts.priority != 0 {
		if err := lowerThreadPriority(e.opts.priority); err != nil {
			e.logger().Debug("executor: set thread priority", "nice", e.opts.priority, "err", err)
		}
	}

	e.execute(e.ready)
	if err := e.ready.Err(); err != nil {
		e.initErr = err
		e.logger().Error("executor: worker context unavailable", "err", err)
	}

	for {
		h, ok := e.next()
		if !ok {
			break
		}
		e.execute(h)
	}

	e.release()
}

// next pops the oldest queued task, blocking while the queue is empty.
// It returns false once the executor is closed and drained.
func (e *Executor) next() (*Handle, bool) {
	for {
		e.mu.Lock()
		if len(e.queue) > 0 {
			h := e.queue[0]
			e.queue[0] = nil
			e.queue = e.queue[1:]
			e.mu.Unlock()
			return h, true
		}
		if e.closed {
			e.mu.Unlock()
			return nil, false
		}
		e.mu.Unlock()
		<-e.wake
	}
}

func (e *Executor) execute(h *Handle) {
	if !h.start() {
		return
	}
	if h != e.ready && e.initErr != nil {
		h.complete(fmt.Errorf("%w: %w", ErrInitFailed, e.initErr))
		return
	}

	err := e.invoke(h)
	if err != nil && h != e.ready {
		e.logger().Debug("executor: task failed", "seq", h.seq, "err", err)
	}
	h.complete(err)
}

func (e *Executor) invoke(h *Handle) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
			e.logger().Warn("executor: task panicked", "seq", h.seq, "panic", r)
		}
	}()
	return h.fn(h.ctx, e.gpu)
}

// initialize creates the worker context and makes it current.
func (e *Executor) initialize(parent gpucore.Parent) error {
	if parent == nil {
		return errNilParent
	}

	gpu, err := parent.NewSharedContext()
	if err != nil {
		return fmt.Errorf("create shared context: %w", err)
	}
	surface, err := gpu.CreateOffscreenSurface(e.opts.surfaceWidth, e.opts.surfaceHeight)
	if err != nil {
		gpu.Release()
		return fmt.Errorf("create %dx%d surface: %w", e.opts.surfaceWidth, e.opts.surfaceHeight, err)
	}
	if err := gpu.MakeCurrent(surface); err != nil {
		surface.Release()
		gpu.Release()
		return fmt.Errorf("make current: %w", err)
	}

	e.gpu = gpu
	e.surface = surface
	e.logger().Info("executor: worker context ready",
		"surface", fmt.Sprintf("%dx%d", e.opts.surfaceWidth, e.opts.surfaceHeight))
	return nil
}

func (e *Executor) release() {
	if e.surface != nil {
		e.surface.Release()
		e.surface = nil
	}
	if e.gpu != nil {
		e.gpu.Release()
		e.gpu = nil
	}
	e.logger().Debug("executor: worker stopped")
}
