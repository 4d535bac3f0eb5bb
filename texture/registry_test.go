package texture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gogpu/striplayer/backend/software"
	"github.com/gogpu/striplayer/executor"
	"github.com/gogpu/striplayer/gpucore"
)

func newTestRegistry(t *testing.T) (*Registry, *software.Parent) {
	t.Helper()
	p := software.NewParent()
	exec := executor.New(p, executor.WithThreadPriority(0))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = exec.Shutdown(ctx)
	})
	return NewRegistry(exec), p
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

var testDesc = gpucore.TextureDescriptor{
	Label:  "test",
	Width:  2,
	Height: 2,
	Format: gpucore.PixelFormatA8,
}

func TestRegistryLifecycle(t *testing.T) {
	r, p := newTestRegistry(t)
	ctx := testCtx(t)

	id, err := r.Create(testDesc, Upload([]byte{1, 2, 3, 4})).Get(ctx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id == gpucore.InvalidID {
		t.Fatal("Create() returned InvalidID")
	}
	if n, err := r.Len(ctx); err != nil || n != 1 {
		t.Fatalf("Len() = %d, %v, want 1", n, err)
	}
	if got := p.Stats(); got.Textures != 1 || got.Images != 1 || got.Uploads != 1 {
		t.Errorf("Stats() = %v", got)
	}

	desc, err := executor.Call(r.Executor(), func(_ context.Context, dev gpucore.Device) (gpucore.TextureDescriptor, error) {
		d, ok := r.DescriptorOn(dev, id)
		if !ok {
			return d, ErrUnknownImage
		}
		return d, nil
	}).Get(ctx)
	if err != nil || desc != testDesc {
		t.Errorf("DescriptorOn() = %+v, %v", desc, err)
	}

	if err := r.Update(id, Upload([]byte{5, 6, 7, 8})).Wait(ctx); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := p.Stats().Uploads; got != 2 {
		t.Errorf("uploads = %d, want 2", got)
	}

	canvas := p.NewCanvas(1, 1)
	if err := Apply(canvas, id); err != nil {
		t.Errorf("Apply() error = %v", err)
	}

	if err := r.Destroy(id).Wait(ctx); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if got := p.Stats(); got.Textures != 0 || got.Images != 0 {
		t.Errorf("Stats() after Destroy = %v", got)
	}
	if err := Apply(canvas, id); err == nil {
		t.Error("Apply() of a destroyed image succeeded")
	}
}

func TestRegistryUnknownImage(t *testing.T) {
	r, p := newTestRegistry(t)
	ctx := testCtx(t)

	noop := func(gpucore.Device, gpucore.TextureID) error { return nil }
	if err := r.Update(42, noop).Wait(ctx); !errors.Is(err, ErrUnknownImage) {
		t.Errorf("Update(unknown) error = %v, want ErrUnknownImage", err)
	}
	if err := r.Destroy(42).Wait(ctx); !errors.Is(err, ErrUnknownImage) {
		t.Errorf("Destroy(unknown) error = %v, want ErrUnknownImage", err)
	}
	if err := Apply(p.NewCanvas(1, 1), gpucore.InvalidID); !errors.Is(err, ErrUnknownImage) {
		t.Errorf("Apply(InvalidID) error = %v, want ErrUnknownImage", err)
	}
}

func TestRegistryCreateFailures(t *testing.T) {
	errInit := errors.New("init refused")

	tests := []struct {
		name    string
		desc    gpucore.TextureDescriptor
		init    Initializer
		wantErr error
	}{
		{
			name:    "invalid size",
			desc:    gpucore.TextureDescriptor{Width: 0, Height: 4, Format: gpucore.PixelFormatA8},
			wantErr: gpucore.ErrInvalidDimensions,
		},
		{
			name:    "unknown format",
			desc:    gpucore.TextureDescriptor{Width: 4, Height: 4},
			wantErr: gpucore.ErrUnsupportedFormat,
		},
		{
			name:    "wrong upload size",
			desc:    testDesc,
			init:    Upload([]byte{1}),
			wantErr: gpucore.ErrUploadSize,
		},
		{
			name:    "initializer error",
			desc:    testDesc,
			init:    func(gpucore.Device, gpucore.TextureID) error { return errInit },
			wantErr: errInit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, p := newTestRegistry(t)
			ctx := testCtx(t)

			id, err := r.Create(tt.desc, tt.init).Get(ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
			}
			if id != gpucore.InvalidID {
				t.Errorf("Create() id = %d, want InvalidID", id)
			}
			if n, _ := r.Len(ctx); n != 0 {
				t.Errorf("Len() = %d, want 0", n)
			}
			// A texture whose initializer failed must not leak.
			if got := p.Stats(); got.Textures != 0 || got.Images != 0 {
				t.Errorf("Stats() = %v, want no live resources", got)
			}
		})
	}
}

func TestRegistryNilInitializer(t *testing.T) {
	r, p := newTestRegistry(t)
	ctx := testCtx(t)

	id, err := r.Create(testDesc, nil).Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Stats(); got.Uploads != 0 || got.Images != 1 {
		t.Errorf("Stats() = %v, want one image and no uploads", got)
	}
	if err := r.Destroy(id).Wait(ctx); err != nil {
		t.Fatal(err)
	}
}
