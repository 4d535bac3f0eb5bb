package striplayer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/striplayer/executor"
	"github.com/gogpu/striplayer/gpucore"
	"github.com/gogpu/striplayer/texture"
)

// StripState is the upload state of a strip.
type StripState uint8

// Strip states.
const (
	// StripClean means no upload is outstanding. The front texture
	// matches the source unless Err reports that the last upload or
	// allocation failed; such a strip keeps drawing its old pixels and
	// retries after the next invalidation.
	StripClean StripState = iota

	// StripUploadPending means the strip is dirty and no upload has been
	// scheduled yet. The next transaction schedules one.
	StripUploadPending

	// StripUploadInFlight means an upload is queued or running.
	StripUploadInFlight

	// StripSwapPending means the back texture holds new pixels waiting
	// for the swap task of a transaction.
	StripSwapPending
)

func (s StripState) String() string {
	switch s {
	case StripClean:
		return "Clean"
	case StripUploadPending:
		return "UploadPending"
	case StripUploadInFlight:
		return "UploadInFlight"
	case StripSwapPending:
		return "SwapPending"
	default:
		return fmt.Sprintf("StripState(%d)", s)
	}
}

// Strip is one horizontal band of the source backed by a front/back
// texture pair. Draws sample the front texture; uploads fill the back
// one; a swap exchanges them.
type Strip struct {
	layer  *Layer
	index  int
	offset int
	height int
	width  int
	format gpucore.PixelFormat

	// mu guards everything below. It is taken by the transaction owner
	// (schedule, invalidate), the worker (upload completion, swap) and
	// the render thread (draw).
	mu         sync.Mutex
	front      gpucore.ImageID
	back       gpucore.ImageID
	upload     *executor.Handle
	gen        uint64
	swapNeeded bool
	frontReady bool
	disposed   bool
	err        error
}

// newStrip creates a strip and submits the task that allocates its
// textures. Uploads scheduled later run after that task.
func newStrip(l *Layer, index int, b band, g geometry) *Strip {
	s := &Strip{
		layer:  l,
		index:  index,
		offset: b.offset,
		height: b.height,
		width:  g.width,
		format: g.format,
	}
	l.exec.Submit(s.allocate)
	return s
}

func (s *Strip) descriptor(role string) gpucore.TextureDescriptor {
	o := s.layer.opts
	return gpucore.TextureDescriptor{
		Label:     fmt.Sprintf("%s/strip%d/%s", o.label, s.index, role),
		Width:     s.width,
		Height:    s.height,
		Format:    s.format,
		MinFilter: o.minFilter,
		MagFilter: o.magFilter,
	}
}

// allocate runs on the worker.
func (s *Strip) allocate(_ context.Context, dev gpucore.Device) error {
	if err := s.ensureTexturesOn(dev); err != nil {
		s.fail(err)
		return err
	}
	return nil
}

// ensureTexturesOn creates whichever of the front and back textures is
// missing. It runs on the worker, the only writer of front and back, so
// a texture stored here is always freed by a later dispose task.
func (s *Strip) ensureTexturesOn(dev gpucore.Device) error {
	for _, role := range []string{"front", "back"} {
		s.mu.Lock()
		slot := &s.front
		if role == "back" {
			slot = &s.back
		}
		missing := *slot == gpucore.InvalidID && !s.disposed
		s.mu.Unlock()
		if !missing {
			continue
		}

		id, err := s.layer.reg.CreateOn(dev, s.descriptor(role), nil)
		if err != nil {
			return err
		}
		s.mu.Lock()
		*slot = id
		s.mu.Unlock()
	}
	return nil
}

func (s *Strip) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	Logger().Warn("striplayer: strip failed", "strip", s.String(), "err", err)
}

// Index returns the position of the strip in its layer.
func (s *Strip) Index() int { return s.index }

// Offset returns the first source row covered by the strip.
func (s *Strip) Offset() int { return s.offset }

// Height returns the number of source rows covered by the strip.
func (s *Strip) Height() int { return s.height }

// State returns the current upload state.
func (s *Strip) State() StripState {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.swapNeeded:
		return StripSwapPending
	case s.upload == nil:
		return StripUploadPending
	case !s.upload.IsDone():
		return StripUploadInFlight
	default:
		return StripClean
	}
}

// Err returns the error of the last failed upload or allocation, or nil.
func (s *Strip) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// String implements fmt.Stringer.
func (s *Strip) String() string {
	return fmt.Sprintf("[Strip @ %d for %d]", s.offset, s.height)
}

// invalidate marks the strip dirty. A queued upload is canceled; a
// running or finished one is never swapped in.
func (s *Strip) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upload == nil {
		return
	}
	s.upload.Cancel()
	s.upload = nil
	s.swapNeeded = false
	s.gen++
}

// scheduleUploadIfNecessary submits an upload if the strip is dirty.
func (s *Strip) scheduleUploadIfNecessary() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || s.upload != nil {
		return false
	}
	gen := s.gen
	s.upload = s.layer.exec.Submit(func(ctx context.Context, dev gpucore.Device) error {
		return s.uploadOn(ctx, dev, gen)
	})
	Logger().Debug("striplayer: upload scheduled", "strip", s.String())
	return true
}

// uploadOn copies the strip's rows of the current frame into the back
// texture. It runs on the worker.
func (s *Strip) uploadOn(ctx context.Context, dev gpucore.Device, gen uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// A failed allocation is repaired by the next upload.
	err := s.ensureTexturesOn(dev)
	frame := s.layer.source.Frame()
	if err == nil {
		err = s.checkFrame(frame)
	}
	var data []byte
	if err == nil {
		data, err = frame.Rows(s.offset, s.height)
	}
	if err == nil {
		s.mu.Lock()
		back := s.back
		s.mu.Unlock()
		err = s.layer.reg.UpdateOn(dev, back, texture.Upload(data))
	}
	if err == nil {
		// The swap task must see complete pixels.
		err = dev.Finish()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = err
		if !errors.Is(err, errGeometryChanged) {
			Logger().Warn("striplayer: upload failed", "strip", s.String(), "err", err)
		}
		return err
	}
	if s.gen != gen || s.disposed {
		return ctx.Err()
	}
	s.err = nil
	s.swapNeeded = true
	return nil
}

func (s *Strip) checkFrame(f Frame) error {
	if f.Width != s.width || f.Format != s.format || f.Height < s.offset+s.height {
		return fmt.Errorf("%w: %s built for %dx%d %v, source is %dx%d %v", errGeometryChanged,
			s, s.width, s.offset+s.height, s.format, f.Width, f.Height, f.Format)
	}
	return nil
}

// swapBuffersIfNecessary exchanges front and back after a completed
// upload. It runs on the worker, after the upload task.
func (s *Strip) swapBuffersIfNecessary() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.swapNeeded {
		return false
	}
	s.front, s.back = s.back, s.front
	s.swapNeeded = false
	s.frontReady = true
	return true
}

// draw blits the front texture. Strips that never completed an upload
// draw nothing.
func (s *Strip) draw(rc RenderContext, v view) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || !s.frontReady {
		return nil
	}
	if err := texture.Apply(rc.Canvas, s.front); err != nil {
		return err
	}

	local := gpucore.RectF{
		Left:   0,
		Top:    float32(s.offset),
		Right:  float32(s.width),
		Bottom: float32(s.offset + s.height),
	}
	bounds := v.bounds(rc.ZoomFactor, local)
	crop := gpucore.Crop{X: 0, Y: s.height, W: s.width, H: -s.height}
	return rc.Canvas.DrawTexture(crop, destination(rc.Viewport, bounds))
}

// dispose cancels pending work and frees the textures on the worker.
func (s *Strip) dispose() *executor.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return nil
	}
	s.disposed = true
	s.frontReady = false
	s.swapNeeded = false
	if s.upload != nil {
		s.upload.Cancel()
		s.upload = nil
	}
	s.gen++

	reg := s.layer.reg
	return s.layer.exec.Submit(func(_ context.Context, dev gpucore.Device) error {
		s.mu.Lock()
		front, back := s.front, s.back
		s.front, s.back = gpucore.InvalidID, gpucore.InvalidID
		s.mu.Unlock()

		var errs []error
		for _, id := range []gpucore.ImageID{front, back} {
			if id != gpucore.InvalidID {
				errs = append(errs, reg.DestroyOn(dev, id))
			}
		}
		return errors.Join(errs...)
	})
}
