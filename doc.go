// Package striplayer streams a large, frequently changing bitmap to the
// GPU without ever blocking the render thread on pixel uploads.
//
// # Overview
//
// An image taller than a single texture can hold is cut into horizontal
// strips. Each [Strip] owns two textures: draws sample the front one
// while an upload fills the back one on an [executor.Executor] worker.
// When the upload finishes the two are swapped.
//
// # Quick Start
//
//	parent := software.NewParent()
//	exec := executor.New(parent)
//	defer exec.Shutdown(context.Background())
//
//	src := striplayer.NewImageSource(img)
//	layer, err := striplayer.NewLayer(exec, src)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	tx := layer.BeginTransaction()
//	tx.SetOrigin(image.Pt(0, 0))
//	tx.Invalidate()
//	commit, err := tx.End()
//
//	// On the render thread, every frame:
//	layer.Draw(striplayer.RenderContext{
//		Viewport:   viewport,
//		ZoomFactor: 1,
//		Canvas:     canvas,
//	})
//
// # Transactions
//
// Origin and resolution are only changed through a [Transaction]. End
// schedules uploads for dirty strips, then one task that swaps every
// strip with a completed upload and finally applies the queued changes.
// A draw therefore never combines a new resolution with pixel data older
// than the swap that came with it. Draws are not synchronized with the
// swap across strips, so a single frame may show some strips before and
// some after a swap; every strip always shows a complete texture.
//
// # Coordinates
//
// Sources are top-left-origin. Textures and draw destinations follow the
// GPU's bottom-left origin; strips draw with a vertically flipped crop so
// the image appears upright.
package striplayer
