// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !linux

package executor

func lowerThreadPriority(int) error { return nil }
