// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package executor

import (
	"context"

	"github.com/gogpu/striplayer/gpucore"
)

// Future is a Handle that also carries a value produced by the task.
type Future[T any] struct {
	*Handle
	value T
}

// Call submits fn to e and returns a future for its result.
func Call[T any](e *Executor, fn func(ctx context.Context, dev gpucore.Device) (T, error)) *Future[T] {
	f := &Future[T]{}
	f.Handle = e.Submit(func(ctx context.Context, dev gpucore.Device) error {
		v, err := fn(ctx, dev)
		if err != nil {
			return err
		}
		f.value = v
		return nil
	})
	return f
}

// Get waits for the task and returns its value.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	if err := f.Wait(ctx); err != nil {
		var zero T
		return zero, err
	}
	return f.value, nil
}
