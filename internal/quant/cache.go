package quant

import "github.com/deepteams/bmp/internal/header"

// colorCache memoizes nearest-palette lookups in a hash-addressed table
// keyed by the packed 24-bit source color. Collisions simply evict; the
// mapping is recomputed on the next miss. Photographic sources hit the
// cache for the vast majority of pixels.
type colorCache struct {
	slots []int64 // packed color | index<<24, -1 when empty
	shift uint
}

// cacheHashMul is the multiplicative hash constant for cache addressing.
const cacheHashMul = 0x1e35a7bd

const cacheBits = 14

func newColorCache() *colorCache {
	slots := make([]int64, 1<<cacheBits)
	for i := range slots {
		slots[i] = -1
	}
	return &colorCache{slots: slots, shift: 32 - cacheBits}
}

func (c *colorCache) lookup(color uint32) (int, bool) {
	slot := c.slots[(color*cacheHashMul)>>c.shift]
	if slot >= 0 && uint32(slot)&0xFFFFFF == color {
		return int(slot >> 24), true
	}
	return 0, false
}

func (c *colorCache) insert(color uint32, index int) {
	c.slots[(color*cacheHashMul)>>c.shift] = int64(color) | int64(index)<<24
}

// kdTreeThreshold is the palette size at which Map switches from a linear
// scan to the K-d tree with memoization.
const kdTreeThreshold = 64

// Map converts a raster to one palette index per pixel. Grayscale sources
// expand to (g,g,g); the alpha of 4-channel sources is ignored. Small
// palettes use a linear scan with smaller-index tie-breaking; palettes of
// kdTreeThreshold or more colors use the K-d tree behind the memo cache.
func Map(pix []byte, channels int, palette []header.RGB) []byte {
	out := make([]byte, len(pix)/channels)

	if len(palette) >= kdTreeThreshold {
		tree := NewKDTree(palette)
		cache := newColorCache()
		for i, o := 0, 0; i < len(pix); i, o = i+channels, o+1 {
			r, g, b := pixelRGB(pix, i, channels)
			c := pack(r, g, b)
			idx, ok := cache.lookup(c)
			if !ok {
				idx = tree.Nearest(r, g, b)
				cache.insert(c, idx)
			}
			out[o] = byte(idx)
		}
		return out
	}

	for i, o := 0, 0; i < len(pix); i, o = i+channels, o+1 {
		r, g, b := pixelRGB(pix, i, channels)
		best, bestDist := 0, 1<<30
		for pi, pc := range palette {
			if d := sqDist(pc, r, g, b); d < bestDist {
				best, bestDist = pi, d
			}
		}
		out[o] = byte(best)
	}
	return out
}

func pixelRGB(pix []byte, i, channels int) (r, g, b uint8) {
	if channels == 1 {
		return pix[i], pix[i], pix[i]
	}
	return pix[i], pix[i+1], pix[i+2]
}
