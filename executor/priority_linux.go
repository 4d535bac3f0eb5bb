// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build linux

package executor

import "golang.org/x/sys/unix"

// lowerThreadPriority sets the nice value of the calling OS thread.
// The caller must hold runtime.LockOSThread.
func lowerThreadPriority(nice int) error {
	return unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), nice)
}
