package striplayer

import (
	"context"
	"testing"
	"time"

	"github.com/gogpu/striplayer/backend/software"
	"github.com/gogpu/striplayer/executor"
	"github.com/gogpu/striplayer/gpucore"
)

// rowFrame returns an RGBA8 frame whose red channel is row*10 mod 256.
func rowFrame(w, h int) Frame {
	pix := make([]byte, w*h*4)
	for y := range h {
		for x := range w {
			i := (y*w + x) * 4
			pix[i+0] = byte(y * 10)
			pix[i+3] = 0xff
		}
	}
	return Frame{Width: w, Height: h, Format: gpucore.PixelFormatRGBA8, Pix: pix}
}

// solidFrame returns an RGBA8 frame filled with red value r.
func solidFrame(w, h int, r byte) Frame {
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i+0] = r
		pix[i+3] = 0xff
	}
	return Frame{Width: w, Height: h, Format: gpucore.PixelFormatRGBA8, Pix: pix}
}

func sourceOf(t *testing.T, f Frame) *BufferSource {
	t.Helper()
	src := &BufferSource{}
	if err := src.Replace(f); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	return src
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

type testEnv struct {
	parent *software.Parent
	exec   *executor.Executor
	layer  *Layer
}

func newTestEnv(t *testing.T, src Source, parentOpts []software.Option, opts ...Option) *testEnv {
	t.Helper()
	p := software.NewParent(parentOpts...)
	exec := executor.New(p, executor.WithThreadPriority(0))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := exec.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
	})
	l, err := NewLayer(exec, src, opts...)
	if err != nil {
		t.Fatalf("NewLayer() error = %v", err)
	}
	return &testEnv{parent: p, exec: exec, layer: l}
}

// commit runs fn inside a transaction and waits for it to be applied.
func (e *testEnv) commit(t *testing.T, fn func(tx *Transaction)) *Commit {
	t.Helper()
	tx := e.layer.BeginTransaction()
	if fn != nil {
		fn(tx)
	}
	c, err := tx.End()
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if err := c.Wait(waitCtx(t)); err != nil {
		t.Fatalf("Commit.Wait() error = %v", err)
	}
	return c
}

func (e *testEnv) flush(t *testing.T) {
	t.Helper()
	if err := e.exec.Flush(waitCtx(t)); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
}

func (e *testEnv) states() []StripState {
	strips := e.layer.Strips()
	out := make([]StripState, len(strips))
	for i, s := range strips {
		out[i] = s.State()
	}
	return out
}

// render draws the layer 1:1 into a fresh canvas of the viewport size.
func (e *testEnv) render(t *testing.T, w, h int) *software.Canvas {
	t.Helper()
	canvas := e.parent.NewCanvas(w, h)
	rc := RenderContext{
		Viewport:   gpucore.RectF{Right: float32(w), Bottom: float32(h)},
		PageSize:   gpucore.SizeF{Width: float32(w), Height: float32(h)},
		ZoomFactor: 1,
		Canvas:     canvas,
	}
	if err := e.layer.Draw(rc); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	return canvas
}
