// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements the gpucore contexts on top of a hal device
// shared with the host application.
//
// A wgpu device has no per-thread current context and no share groups:
// every texture created on the device is visible to every queue user. A
// Parent therefore models the share group as the device itself, and each
// worker Context is bookkeeping over the same hal.Device and hal.Queue.
//
// Drawing belongs to the host's render pass. The host implements
// [Compositor] and wraps it in a [Canvas]; layers bind exported images
// and the canvas forwards each draw with the image's texture view.
//
// The backend registers itself under [backend.BackendWGPU]. Its factory
// needs Options.Provider exposing HalDevice() and HalQueue():
//
//	import _ "github.com/gogpu/striplayer/backend/wgpu"
//
//	parent, err := backend.Get(backend.BackendWGPU, backend.Options{Provider: app})
package wgpu
