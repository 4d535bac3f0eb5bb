// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package executor runs GPU work on a dedicated background thread.
//
// An [Executor] owns one worker goroutine locked to an OS thread. The
// first thing the worker does is derive a context from a caller-supplied
// [gpucore.Parent], create a small off-screen surface and make the
// context current. Every submitted [Task] then runs on that thread, one
// at a time, in submission order.
//
// Submitting returns a [Handle]. Handles can be waited on, polled and
// canceled; canceling a task that has not started guarantees it never
// runs. [Call] wraps a value-returning function in a [Future].
//
//	exec := executor.New(parent)
//	defer exec.Shutdown(context.Background())
//
//	h := exec.Submit(func(ctx context.Context, dev gpucore.Device) error {
//		return dev.UploadTexture(id, pixels)
//	})
//	if err := h.Wait(ctx); err != nil {
//		return err
//	}
//
// A panicking task is recovered and reported as a [*PanicError] through
// its handle; the worker keeps running.
package executor
