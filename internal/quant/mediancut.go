// Package quant generates indexed-color palettes with Median Cut and maps
// raw pixels onto them using a K-d tree with a color memo cache.
package quant

import (
	"sort"

	"github.com/deepteams/bmp/internal/header"
)

// pack combines r, g, b into a 24-bit value.
func pack(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

func unpack(c uint32) (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// component extracts one axis (0=R, 1=G, 2=B) from a packed color.
func component(c uint32, axis int) uint8 {
	return uint8(c >> uint(16-8*axis))
}

// box is one Median Cut partition: a set of unique colors plus per-axis
// bounds.
type box struct {
	colors   []uint32
	min, max [3]uint8
}

func newBox(colors []uint32) *box {
	b := &box{colors: colors}
	for axis := 0; axis < 3; axis++ {
		b.min[axis] = 255
	}
	for _, c := range colors {
		for axis := 0; axis < 3; axis++ {
			v := component(c, axis)
			if v < b.min[axis] {
				b.min[axis] = v
			}
			if v > b.max[axis] {
				b.max[axis] = v
			}
		}
	}
	return b
}

// widestAxis returns the axis with the largest range and that range.
func (b *box) widestAxis() (axis, rng int) {
	for a := 0; a < 3; a++ {
		r := int(b.max[a]) - int(b.min[a])
		if r > rng {
			axis, rng = a, r
		}
	}
	return axis, rng
}

// mean returns the component-wise rounded average of the box's colors.
func (b *box) mean() header.RGB {
	var sum [3]int
	for _, c := range b.colors {
		r, g, bl := unpack(c)
		sum[0] += int(r)
		sum[1] += int(g)
		sum[2] += int(bl)
	}
	n := len(b.colors)
	return header.RGB{
		R: uint8((sum[0] + n/2) / n),
		G: uint8((sum[1] + n/2) / n),
		B: uint8((sum[2] + n/2) / n),
	}
}

// uniqueColors collects the distinct packed RGB values of a raster in
// ascending order. Grayscale pixels expand to (g,g,g); alpha is ignored.
func uniqueColors(pix []byte, channels int) []uint32 {
	seen := make(map[uint32]struct{})
	for i := 0; i < len(pix); i += channels {
		var c uint32
		if channels == 1 {
			c = pack(pix[i], pix[i], pix[i])
		} else {
			c = pack(pix[i], pix[i+1], pix[i+2])
		}
		seen[c] = struct{}{}
	}
	colors := make([]uint32, 0, len(seen))
	for c := range seen {
		colors = append(colors, c)
	}
	sort.Slice(colors, func(i, j int) bool { return colors[i] < colors[j] })
	return colors
}

// MedianCut derives a palette of exactly size entries from a raster.
// When the image has no more than size distinct colors they become the
// palette directly (remaining slots black); otherwise the color space is
// split repeatedly at the median of the widest box until size boxes remain,
// and each box contributes its mean color.
func MedianCut(pix []byte, channels, size int) []header.RGB {
	colors := uniqueColors(pix, channels)
	palette := make([]header.RGB, size)

	if len(colors) <= size {
		for i, c := range colors {
			r, g, b := unpack(c)
			palette[i] = header.RGB{R: r, G: g, B: b}
		}
		return palette
	}

	boxes := []*box{newBox(colors)}
	for len(boxes) < size {
		// Split the box with the widest axis range.
		best, bestRange := -1, -1
		for i, b := range boxes {
			if _, r := b.widestAxis(); r > bestRange {
				best, bestRange = i, r
			}
		}
		b := boxes[best]
		if len(b.colors) < 2 {
			break
		}
		axis, _ := b.widestAxis()
		sort.Slice(b.colors, func(i, j int) bool {
			return component(b.colors[i], axis) < component(b.colors[j], axis)
		})
		mid := len(b.colors) / 2
		boxes[best] = newBox(b.colors[:mid])
		boxes = append(boxes, newBox(b.colors[mid:]))
	}

	for i, b := range boxes {
		palette[i] = b.mean()
	}
	return palette
}

// Grayscale returns n palette entries evenly spread from black to white.
func Grayscale(n int) []header.RGB {
	palette := make([]header.RGB, n)
	for i := range palette {
		v := uint8(0)
		if n > 1 {
			v = uint8((i*255 + (n-1)/2) / (n - 1))
		}
		palette[i] = header.RGB{R: v, G: v, B: v}
	}
	return palette
}
