package striplayer

import "github.com/gogpu/striplayer/gpucore"

// geometry is the part of a frame that determines the strip layout.
type geometry struct {
	width, height int
	format        gpucore.PixelFormat
}

// band is one horizontal range of source rows.
type band struct {
	offset, height int
}

// stripCount returns how many textures of at most maxBytes the frame
// needs, rounding up.
func stripCount(g geometry, maxBytes int) int {
	bytes := g.width * g.height * g.format.BytesPerPixel()
	if bytes <= 0 || maxBytes <= 0 {
		return 0
	}
	return (bytes + maxBytes - 1) / maxBytes
}

// computeBands splits the rows of g into contiguous bands.
//
// Every band but the last has the same height, ceil(height/count), which
// is lowered if needed so a band never needs more than maxBytes. A single
// row wider than maxBytes still gets a band of its own.
func computeBands(g geometry, maxBytes int) []band {
	count := stripCount(g, maxBytes)
	if count == 0 {
		return nil
	}

	h := (g.height + count - 1) / count
	if rowBytes := g.width * g.format.BytesPerPixel(); h*rowBytes > maxBytes {
		h = max(maxBytes/rowBytes, 1)
	}

	bands := make([]band, 0, (g.height+h-1)/h)
	for off := 0; off < g.height; off += h {
		bands = append(bands, band{offset: off, height: min(h, g.height-off)})
	}
	return bands
}

// bandRange returns the indices of the bands covering rows [top, bottom)
// given the uniform band height. ok is false when no band is covered.
func bandRange(top, bottom, bandHeight, n int) (first, last int, ok bool) {
	if bandHeight <= 0 || n == 0 || bottom <= top {
		return 0, 0, false
	}
	first = max(top/bandHeight, 0)
	last = min((bottom-1)/bandHeight, n-1)
	if bottom <= 0 || first >= n || first > last {
		return 0, 0, false
	}
	return first, last, true
}
