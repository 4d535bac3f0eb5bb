// Command stripdemo tiles a tall image into strips, updates it through
// transactions and renders the result with the software backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"log"
	"log/slog"
	"os"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/striplayer"
	"github.com/gogpu/striplayer/backend"
	"github.com/gogpu/striplayer/backend/software"
	_ "github.com/gogpu/striplayer/backend/wgpu"
	"github.com/gogpu/striplayer/executor"
	"github.com/gogpu/striplayer/gpucore"
)

func main() {
	var (
		input      = flag.String("input", "", "source image (png, jpeg, bmp, webp); synthesized when empty")
		width      = flag.Int("width", 600, "synthesized image width")
		height     = flag.Int("height", 2400, "synthesized image height")
		maxBytes   = flag.Int("max-bytes", striplayer.DefaultMaxTextureBytes, "byte budget of one strip texture")
		frames     = flag.Int("frames", 3, "number of source updates to commit")
		resolution = flag.Float64("resolution", 1, "resolution the source is rendered at")
		zoom       = flag.Float64("zoom", 0.5, "page zoom factor")
		scroll     = flag.Int("scroll", 0, "vertical viewport offset in page pixels")
		viewW      = flag.Int("view-width", 400, "viewport width")
		viewH      = flag.Int("view-height", 600, "viewport height")
		output     = flag.String("output", "stripdemo.png", "output file")
		verbose    = flag.Bool("verbose", false, "log per-strip activity")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	striplayer.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	img, err := loadSource(*input, *width, *height)
	if err != nil {
		log.Fatalf("Failed to load source: %v", err)
	}
	src := striplayer.NewImageSource(img)

	parent, name, err := backend.Default(backend.Options{Label: "stripdemo"})
	if err != nil {
		log.Fatalf("No backend: %v", err)
	}
	sp, ok := parent.(*software.Parent)
	if !ok {
		log.Fatalf("Backend %q cannot render off-screen", name)
	}

	exec := executor.New(parent)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := exec.Shutdown(ctx); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}()

	layer, err := striplayer.NewLayer(exec, src,
		striplayer.WithLabel("demo"),
		striplayer.WithMaxTextureBytes(*maxBytes))
	if err != nil {
		log.Fatalf("Failed to create layer: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for frame := range *frames {
		if frame > 0 {
			src.ReplaceImage(stamp(img, frame))
		}
		tx := layer.BeginTransaction()
		if err := tx.Invalidate(); err != nil {
			log.Fatalf("Invalidate: %v", err)
		}
		if err := tx.SetResolution(float32(*resolution)); err != nil {
			log.Fatalf("SetResolution: %v", err)
		}
		c, err := tx.End()
		if err != nil {
			log.Fatalf("End: %v", err)
		}
		if err := c.Wait(ctx); err != nil {
			log.Fatalf("Commit %d: %v", frame, err)
		}
		log.Printf("Frame %d: %d strips, %d swapped, %s", frame, len(layer.Strips()), c.Swapped(), sp.Stats())
	}

	canvas := sp.NewCanvas(*viewW, *viewH)
	canvas.Clear(color.White)
	rc := striplayer.RenderContext{
		Viewport: gpucore.RectF{
			Top:    float32(*scroll),
			Right:  float32(*viewW),
			Bottom: float32(*scroll + *viewH),
		},
		PageSize:   gpucore.SizeF{Width: float32(*viewW), Height: float32(img.Bounds().Dy())},
		ZoomFactor: float32(*zoom),
		Canvas:     canvas,
	}
	if err := layer.Draw(rc); err != nil {
		log.Fatalf("Draw: %v", err)
	}

	if err := savePNG(*output, canvas.Image()); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	if err := layer.Close(); err != nil {
		log.Printf("Close: %v", err)
	}
	log.Printf("Demo saved to %s (%dx%d, %d draws, backend %s)\n", *output, *viewW, *viewH, canvas.Draws(), name)
}

func loadSource(path string, w, h int) (image.Image, error) {
	if path == "" {
		return synthesize(w, h), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	log.Printf("Loaded %s image %v", format, img.Bounds())
	return img, nil
}

// synthesize draws horizontal color bands so strip seams are easy to spot.
func synthesize(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	steps := 24
	for y := range h {
		t := float64(y*steps/h) / float64(steps)
		c := color.RGBA{
			R: uint8(25 + t*100),
			G: uint8(50 + t*150),
			B: uint8(100 + t*50),
			A: 255,
		}
		for x := range w {
			if (x/40+y/40)%2 == 0 {
				img.SetRGBA(x, y, c)
			} else {
				img.SetRGBA(x, y, color.RGBA{R: c.R / 2, G: c.G / 2, B: c.B / 2, A: 255})
			}
		}
	}
	return img
}

// stamp returns a copy of img with a marker bar whose position depends
// on frame.
func stamp(img image.Image, frame int) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := range b.Dy() {
		for x := range b.Dx() {
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	top := (frame * b.Dy() / 8) % b.Dy()
	for y := top; y < min(top+20, b.Dy()); y++ {
		for x := range b.Dx() {
			out.SetRGBA(x, y, color.RGBA{R: 220, G: 40, B: 40, A: 255})
		}
	}
	return out
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
