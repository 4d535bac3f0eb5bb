package striplayer

import (
	"context"
	"errors"
	"image"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/gogpu/striplayer/backend/software"
	"github.com/gogpu/striplayer/executor"
	"github.com/gogpu/striplayer/gpucore"
)

func TestNewLayerErrors(t *testing.T) {
	p := software.NewParent()
	exec := executor.New(p, executor.WithThreadPriority(0))
	t.Cleanup(func() { _ = exec.Shutdown(waitCtx(t)) })

	if _, err := NewLayer(exec, nil); !errors.Is(err, ErrNilSource) {
		t.Errorf("NewLayer(nil source) error = %v, want ErrNilSource", err)
	}
	if _, err := NewLayer(nil, NewBufferSource(1, 1, gpucore.PixelFormatA8)); err == nil {
		t.Error("NewLayer(nil executor) succeeded")
	}
	bad := &BufferSource{frame: Frame{Width: 4, Height: 4, Format: gpucore.PixelFormatRGBA8, Pix: make([]byte, 10)}}
	if _, err := NewLayer(exec, bad); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("NewLayer(short buffer) error = %v, want ErrInvalidFrame", err)
	}
}

func TestLayerStripLayout(t *testing.T) {
	src := NewBufferSource(1024, 2048, gpucore.PixelFormatRGBA8)
	env := newTestEnv(t, src, nil, WithMaxTextureBytes(2<<20))

	strips := env.layer.Strips()
	if len(strips) != 4 {
		t.Fatalf("len(Strips()) = %d, want 4", len(strips))
	}
	for i, s := range strips {
		if s.Index() != i || s.Offset() != i*512 || s.Height() != 512 {
			t.Errorf("strip %d = %v (index %d), want offset %d height 512", i, s, s.Index(), i*512)
		}
		if s.State() != StripUploadPending {
			t.Errorf("new strip %d state = %v, want UploadPending", i, s.State())
		}
	}
	if got := strips[1].String(); got != "[Strip @ 512 for 512]" {
		t.Errorf("String() = %q", got)
	}

	env.flush(t)
	if got := env.parent.Stats(); got.Textures != 8 || got.Images != 8 {
		t.Errorf("Stats() = %v, want 8 textures and 8 images", got)
	}
}

func TestLayerInvalidateRect(t *testing.T) {
	src := NewBufferSource(1024, 2048, gpucore.PixelFormatRGBA8)
	env := newTestEnv(t, src, nil, WithMaxTextureBytes(2<<20))

	env.commit(t, nil)
	clean := []StripState{StripClean, StripClean, StripClean, StripClean}
	if got := env.states(); !slices.Equal(got, clean) {
		t.Fatalf("states after first commit = %v, want all Clean", got)
	}

	env.layer.InvalidateRect(image.Rect(0, 600, 1024, 700))
	want := []StripState{StripClean, StripUploadPending, StripClean, StripClean}
	if got := env.states(); !slices.Equal(got, want) {
		t.Errorf("states after InvalidateRect = %v, want %v", got, want)
	}

	before := env.parent.Stats().Uploads
	env.commit(t, nil)
	if got := env.parent.Stats().Uploads - before; got != 1 {
		t.Errorf("uploads after invalidating one strip = %d, want 1", got)
	}
	if got := env.states(); !slices.Equal(got, clean) {
		t.Errorf("states after second commit = %v, want all Clean", got)
	}
}

func TestLayerInvalidateIdempotent(t *testing.T) {
	env := newTestEnv(t, sourceOf(t, rowFrame(4, 8)), nil, WithMaxTextureBytes(32))
	env.commit(t, nil)
	n := len(env.layer.Strips())

	before := env.parent.Stats().Uploads
	env.layer.Invalidate()
	env.layer.Invalidate()
	env.commit(t, func(tx *Transaction) {
		if err := tx.Invalidate(); err != nil {
			t.Fatal(err)
		}
	})
	if got := env.parent.Stats().Uploads - before; got != n {
		t.Errorf("uploads = %d, want one per strip (%d)", got, n)
	}
}

func TestLayerEmptyTransaction(t *testing.T) {
	env := newTestEnv(t, sourceOf(t, rowFrame(4, 8)), nil)
	c := env.commit(t, nil)
	if c.Swapped() != 1 {
		t.Errorf("first commit swapped %d strips, want 1", c.Swapped())
	}
	c = env.commit(t, nil)
	if c.Swapped() != 0 {
		t.Errorf("empty commit swapped %d strips, want 0", c.Swapped())
	}
}

func TestLayerEmptySource(t *testing.T) {
	env := newTestEnv(t, NewBufferSource(0, 0, gpucore.PixelFormatRGBA8), nil)
	if n := len(env.layer.Strips()); n != 0 {
		t.Fatalf("len(Strips()) = %d, want 0", n)
	}
	env.layer.InvalidateRect(image.Rect(0, 0, 10, 10))
	env.commit(t, nil)
	if err := env.layer.Draw(RenderContext{}); err != nil {
		t.Errorf("Draw() on empty layer error = %v", err)
	}
}

func TestLayerDrawRoundTrip(t *testing.T) {
	const w, h = 4, 8
	// 32 bytes per strip: two rows each.
	env := newTestEnv(t, sourceOf(t, rowFrame(w, h)), nil, WithMaxTextureBytes(32))
	if n := len(env.layer.Strips()); n != 4 {
		t.Fatalf("len(Strips()) = %d, want 4", n)
	}

	canvas := env.render(t, w, h)
	if canvas.Draws() != 0 {
		t.Errorf("Draws() before first commit = %d, want 0", canvas.Draws())
	}

	env.commit(t, nil)
	canvas = env.render(t, w, h)
	if canvas.Draws() != 4 {
		t.Errorf("Draws() = %d, want 4", canvas.Draws())
	}
	for y := range h {
		if got := canvas.Image().RGBAAt(2, y).R; got != byte(y*10) {
			t.Errorf("row %d red = %d, want %d", y, got, y*10)
		}
	}
}

func TestLayerDrawViewportOffset(t *testing.T) {
	const w, h = 4, 8
	env := newTestEnv(t, sourceOf(t, rowFrame(w, h)), nil, WithMaxTextureBytes(32))
	env.commit(t, func(tx *Transaction) {
		if err := tx.SetOrigin(image.Pt(0, 2)); err != nil {
			t.Fatal(err)
		}
	})

	// Origin (0,2) moves the layer two page rows down.
	canvas := env.parent.NewCanvas(w, h)
	rc := RenderContext{
		Viewport:   gpucore.RectF{Right: w, Bottom: h},
		ZoomFactor: 1,
		Canvas:     canvas,
	}
	if err := env.layer.Draw(rc); err != nil {
		t.Fatal(err)
	}
	for y := 2; y < h; y++ {
		if got := canvas.Image().RGBAAt(0, y).R; got != byte((y-2)*10) {
			t.Errorf("row %d red = %d, want %d", y, got, (y-2)*10)
		}
	}
}

func TestLayerDrawNoCanvas(t *testing.T) {
	env := newTestEnv(t, sourceOf(t, rowFrame(4, 4)), nil)
	env.commit(t, nil)
	if err := env.layer.Draw(RenderContext{ZoomFactor: 1}); !errors.Is(err, ErrNoCanvas) {
		t.Errorf("Draw() error = %v, want ErrNoCanvas", err)
	}
}

func TestLayerBounds(t *testing.T) {
	env := newTestEnv(t, sourceOf(t, rowFrame(4, 4)), nil)
	env.commit(t, func(tx *Transaction) {
		_ = tx.SetOrigin(image.Pt(10, 20))
		_ = tx.SetResolution(2)
	})

	got := env.layer.Bounds(RenderContext{ZoomFactor: 4}, gpucore.RectF{Right: 5, Bottom: 5})
	want := gpucore.RectF{Left: 20, Top: 40, Right: 30, Bottom: 50}
	if got != want {
		t.Errorf("Bounds() = %+v, want %+v", got, want)
	}
}

func TestDestination(t *testing.T) {
	vp := gpucore.RectF{Left: 0, Top: 0, Right: 100, Bottom: 50}
	got := destination(vp, gpucore.RectF{Left: 10, Top: 5, Right: 30, Bottom: 25})
	want := gpucore.DrawRect{X: 10, Y: 25, W: 20, H: 20}
	if got != want {
		t.Errorf("destination() = %+v, want %+v", got, want)
	}

	// Scrolling the viewport moves the destination the other way.
	vp = gpucore.RectF{Left: 5, Top: 10, Right: 105, Bottom: 60}
	got = destination(vp, gpucore.RectF{Left: 10, Top: 5, Right: 30, Bottom: 25})
	want = gpucore.DrawRect{X: 5, Y: 35, W: 20, H: 20}
	if got != want {
		t.Errorf("scrolled destination() = %+v, want %+v", got, want)
	}
}

func TestLayerGeometryChange(t *testing.T) {
	src := sourceOf(t, rowFrame(4, 8))
	env := newTestEnv(t, src, nil, WithMaxTextureBytes(32))
	env.commit(t, nil)
	old := env.layer.Strips()

	if err := src.Replace(rowFrame(4, 4)); err != nil {
		t.Fatal(err)
	}
	env.commit(t, nil)
	env.flush(t)

	strips := env.layer.Strips()
	if len(strips) != 2 {
		t.Fatalf("len(Strips()) after shrink = %d, want 2", len(strips))
	}
	if strips[0] == old[0] {
		t.Error("strips were not recreated")
	}
	if got := env.parent.Stats(); got.Textures != 4 || got.Images != 4 {
		t.Errorf("Stats() = %v, want old textures freed", got)
	}
	for i, s := range strips {
		if s.State() != StripClean {
			t.Errorf("strip %d state = %v, want Clean", i, s.State())
		}
	}
}

func TestLayerGeometryChangeBeforeCommit(t *testing.T) {
	src := sourceOf(t, rowFrame(4, 8))
	env := newTestEnv(t, src, nil, WithMaxTextureBytes(32))

	// The strips were built for 4x8; the transaction rebuilds the layout
	// for the wider frame before uploading.
	if err := src.Replace(solidFrame(8, 8, 7)); err != nil {
		t.Fatal(err)
	}
	env.commit(t, nil)

	strips := env.layer.Strips()
	if len(strips) != 8 {
		t.Fatalf("len(Strips()) = %d, want 8", len(strips))
	}
	canvas := env.render(t, 8, 8)
	if got := canvas.Image().RGBAAt(7, 7).R; got != 7 {
		t.Errorf("pixel red = %d, want 7", got)
	}
}

func TestLayerClose(t *testing.T) {
	env := newTestEnv(t, sourceOf(t, rowFrame(4, 8)), nil, WithMaxTextureBytes(32))
	env.commit(t, nil)

	if err := env.layer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := env.layer.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	env.flush(t)

	if got := env.parent.Stats(); got.Textures != 0 || got.Images != 0 {
		t.Errorf("Stats() after Close = %v, want nothing alive", got)
	}
	if _, err := env.layer.BeginTransaction().End(); !errors.Is(err, ErrLayerClosed) {
		t.Errorf("End() after Close error = %v, want ErrLayerClosed", err)
	}
	if err := env.layer.Draw(RenderContext{}); err != nil {
		t.Errorf("Draw() after Close error = %v", err)
	}
}

func TestLayerUploadFailureRetries(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	boom := errors.New("upload refused")
	hook := software.WithUploadHook(func(gpucore.TextureDescriptor, []byte) error {
		if fail.Load() {
			return boom
		}
		return nil
	})

	env := newTestEnv(t, sourceOf(t, rowFrame(4, 4)), []software.Option{hook})
	c := env.commit(t, nil)
	if c.Swapped() != 0 {
		t.Errorf("Swapped() = %d after failed upload, want 0", c.Swapped())
	}
	s := env.layer.Strips()[0]
	if !errors.Is(s.Err(), boom) {
		t.Errorf("Err() = %v, want upload error", s.Err())
	}
	if s.State() != StripClean {
		t.Errorf("State() = %v, want Clean until invalidated", s.State())
	}
	if canvas := env.render(t, 4, 4); canvas.Draws() != 0 {
		t.Error("strip with no successful upload was drawn")
	}

	// Without an invalidation nothing is retried.
	env.commit(t, nil)
	if s.Err() == nil {
		t.Error("upload retried without invalidation")
	}

	fail.Store(false)
	c = env.commit(t, func(tx *Transaction) { _ = tx.Invalidate() })
	if c.Swapped() != 1 || s.Err() != nil {
		t.Errorf("retry: Swapped() = %d, Err() = %v", c.Swapped(), s.Err())
	}
	if canvas := env.render(t, 4, 4); canvas.Draws() != 1 {
		t.Error("strip not drawn after successful retry")
	}
}

func TestLayerInvalidateDuringUpload(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var block atomic.Bool
	block.Store(true)
	hook := software.WithUploadHook(func(gpucore.TextureDescriptor, []byte) error {
		if block.Load() {
			started <- struct{}{}
			<-release
		}
		return nil
	})

	env := newTestEnv(t, sourceOf(t, rowFrame(4, 4)), []software.Option{hook})
	s := env.layer.Strips()[0]

	tx := env.layer.BeginTransaction()
	c, err := tx.End()
	if err != nil {
		t.Fatal(err)
	}
	<-started
	if s.State() != StripUploadInFlight {
		t.Errorf("State() during upload = %v, want UploadInFlight", s.State())
	}

	block.Store(false)
	env.layer.Invalidate()
	close(release)

	if err := c.Wait(waitCtx(t)); err != nil {
		t.Fatal(err)
	}
	if c.Swapped() != 0 {
		t.Errorf("superseded upload was swapped in")
	}
	if s.State() != StripUploadPending {
		t.Errorf("State() = %v, want UploadPending", s.State())
	}

	c = env.commit(t, nil)
	if c.Swapped() != 1 {
		t.Errorf("re-upload Swapped() = %d, want 1", c.Swapped())
	}
}

func TestLayerExecutorInitFailure(t *testing.T) {
	p := software.NewParent(software.WithContextError(errors.New("no context")))
	exec := executor.New(p, executor.WithThreadPriority(0))
	t.Cleanup(func() { _ = exec.Shutdown(waitCtx(t)) })

	l, err := NewLayer(exec, sourceOf(t, rowFrame(4, 4)))
	if err != nil {
		t.Fatal(err)
	}
	c, err := l.BeginTransaction().End()
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Wait(waitCtx(t)); !errors.Is(err, executor.ErrInitFailed) {
		t.Errorf("Wait() error = %v, want ErrInitFailed", err)
	}
	canvas := p.NewCanvas(4, 4)
	if err := l.Draw(RenderContext{ZoomFactor: 1, Canvas: canvas}); err != nil {
		t.Errorf("Draw() error = %v", err)
	}
	if canvas.Draws() != 0 {
		t.Error("drew without any uploaded strip")
	}
}

var errAllocRefused = errors.New("allocation refused")

// flakyParent hands out contexts whose first CreateTexture calls fail.
type flakyParent struct {
	*software.Parent
	failures atomic.Int32
}

func (p *flakyParent) NewSharedContext() (gpucore.Context, error) {
	c, err := p.Parent.NewSharedContext()
	if err != nil {
		return nil, err
	}
	return &flakyContext{Context: c, parent: p}, nil
}

type flakyContext struct {
	gpucore.Context
	parent *flakyParent
}

func (c *flakyContext) CreateTexture(desc gpucore.TextureDescriptor) (gpucore.TextureID, error) {
	if c.parent.failures.Add(-1) >= 0 {
		return gpucore.InvalidID, errAllocRefused
	}
	return c.Context.CreateTexture(desc)
}

func TestLayerAllocationFailureRecovers(t *testing.T) {
	p := &flakyParent{Parent: software.NewParent()}
	// The allocation task and the first upload both fail.
	p.failures.Store(2)
	exec := executor.New(p, executor.WithThreadPriority(0))
	t.Cleanup(func() { _ = exec.Shutdown(waitCtx(t)) })

	l, err := NewLayer(exec, sourceOf(t, rowFrame(4, 4)))
	if err != nil {
		t.Fatal(err)
	}
	env := &testEnv{parent: p.Parent, exec: exec, layer: l}

	c := env.commit(t, nil)
	s := l.Strips()[0]
	if c.Swapped() != 0 || !errors.Is(s.Err(), errAllocRefused) {
		t.Fatalf("first commit: Swapped() = %d, Err() = %v", c.Swapped(), s.Err())
	}
	if canvas := env.render(t, 4, 4); canvas.Draws() != 0 {
		t.Error("strip without textures was drawn")
	}

	for round := range 3 {
		c = env.commit(t, func(tx *Transaction) { _ = tx.Invalidate() })
		if round == 0 && c.Swapped() != 1 {
			t.Errorf("retry: Swapped() = %d, want 1", c.Swapped())
		}
		if s.Err() != nil || s.State() != StripClean {
			t.Fatalf("round %d: Err() = %v, State() = %v", round, s.Err(), s.State())
		}
		canvas := env.render(t, 4, 4)
		if canvas.Draws() != 1 {
			t.Fatalf("round %d: strip not drawn after recovery", round)
		}
		if got := canvas.Image().RGBAAt(0, 3).R; got != 30 {
			t.Errorf("round %d: row 3 red = %d, want 30", round, got)
		}
	}

	if got := p.Stats().Textures; got != 2 {
		t.Errorf("live textures = %d, want 2", got)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	env.flush(t)
	if got := p.Stats().Textures; got != 0 {
		t.Errorf("live textures after Close = %d, want 0", got)
	}
}

// An upload that finished before an invalidation must not be swapped in.
func TestLayerInvalidateAfterUploadBeforeSwap(t *testing.T) {
	src := sourceOf(t, solidFrame(4, 4, 1))
	env := newTestEnv(t, src, nil)
	env.commit(t, nil)
	s := env.layer.Strips()[0]

	if err := src.Replace(solidFrame(4, 4, 2)); err != nil {
		t.Fatal(err)
	}
	s.invalidate()
	if !s.scheduleUploadIfNecessary() {
		t.Fatal("scheduleUploadIfNecessary() = false for a dirty strip")
	}
	env.flush(t)
	if got := s.State(); got != StripSwapPending {
		t.Fatalf("State() = %v, want SwapPending", got)
	}

	if err := src.Replace(solidFrame(4, 4, 3)); err != nil {
		t.Fatal(err)
	}
	s.invalidate()
	if got := s.State(); got != StripUploadPending {
		t.Errorf("State() after invalidate = %v, want UploadPending", got)
	}

	swapped, err := executor.Call(env.exec, func(context.Context, gpucore.Device) (bool, error) {
		return s.swapBuffersIfNecessary(), nil
	}).Get(waitCtx(t))
	if err != nil {
		t.Fatal(err)
	}
	if swapped {
		t.Error("invalidated upload was swapped in")
	}
	if got := env.render(t, 4, 4).Image().RGBAAt(0, 0).R; got != 1 {
		t.Errorf("pixel = %d, want the old front pixels", got)
	}

	env.commit(t, nil)
	if got := env.render(t, 4, 4).Image().RGBAAt(0, 0).R; got != 3 {
		t.Errorf("pixel after commit = %d, want 3", got)
	}
}
