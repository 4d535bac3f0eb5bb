// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/striplayer/backend"
)

var (
	// ErrNoHAL is returned when a provider does not expose hal types.
	ErrNoHAL = errors.New("wgpu: provider does not expose hal device and queue")

	// ErrFenceTimeout is returned by Finish when the queue did not drain in time.
	ErrFenceTimeout = errors.New("wgpu: fence wait timed out")
)

// halProvider is implemented by hosts that hand out their hal device.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// device is the part of hal.Device the backend uses.
type device interface {
	CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error)
	DestroyTexture(texture hal.Texture)
	CreateTextureView(texture hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error)
	DestroyTextureView(view hal.TextureView)
	CreateFence() (hal.Fence, error)
	DestroyFence(fence hal.Fence)
	Wait(fence hal.Fence, value uint64, timeout time.Duration) (bool, error)
}

// queue holds the two hal.Queue operations the backend issues.
type queue struct {
	write  func(dst *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, size *hal.Extent3D)
	submit func(fence hal.Fence, value uint64) error
}

func halQueue(q hal.Queue) queue {
	return queue{
		write: func(dst *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, size *hal.Extent3D) {
			q.WriteTexture(dst, data, layout, size)
		},
		submit: func(fence hal.Fence, value uint64) error {
			return q.Submit(nil, fence, value)
		},
	}
}

// unwrap extracts the hal device and queue from a host provider.
func unwrap(provider gpucontext.DeviceProvider) (hal.Device, hal.Queue, error) {
	if provider == nil {
		return nil, nil, backend.ErrNoProvider
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, nil, ErrNoHAL
	}
	dev, ok := hp.HalDevice().(hal.Device)
	if !ok || dev == nil {
		return nil, nil, errors.Join(ErrNoHAL, errors.New("wgpu: HalDevice is not a hal.Device"))
	}
	q, ok := hp.HalQueue().(hal.Queue)
	if !ok || q == nil {
		return nil, nil, errors.Join(ErrNoHAL, errors.New("wgpu: HalQueue is not a hal.Queue"))
	}
	return dev, q, nil
}
