// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package software emulates a shared-context GPU on the CPU.
//
// A [Parent] is a share group: every [Context] created from it sees the
// same textures and exported images. A [Canvas] plays the role of the
// on-screen context. It binds exported images and draws them into an
// RGBA framebuffer with GL texture-crop semantics, scaling through
// golang.org/x/image/draw.
//
// The backend registers itself under the name "software":
//
//	import _ "github.com/gogpu/striplayer/backend/software"
//
// It is always available and is used by the tests and the demo.
package software
