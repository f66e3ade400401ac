package quant

import (
	"sort"

	"github.com/deepteams/bmp/internal/header"
)

// kdNode is one node of a balanced K-d tree over palette colors. The
// splitting axis cycles R, G, B with depth.
type kdNode struct {
	color       header.RGB
	index       int // palette index, used for deterministic tie-breaking
	left, right *kdNode
}

// KDTree accelerates nearest-color lookups for large palettes.
type KDTree struct {
	root *kdNode
}

type kdEntry struct {
	color header.RGB
	index int
}

// NewKDTree builds a balanced tree by recursive median splitting.
func NewKDTree(palette []header.RGB) *KDTree {
	entries := make([]kdEntry, len(palette))
	for i, c := range palette {
		entries[i] = kdEntry{color: c, index: i}
	}
	return &KDTree{root: buildKD(entries, 0)}
}

func axisValue(c header.RGB, axis int) int {
	switch axis {
	case 0:
		return int(c.R)
	case 1:
		return int(c.G)
	default:
		return int(c.B)
	}
}

func buildKD(entries []kdEntry, depth int) *kdNode {
	if len(entries) == 0 {
		return nil
	}
	axis := depth % 3
	sort.Slice(entries, func(i, j int) bool {
		a, b := axisValue(entries[i].color, axis), axisValue(entries[j].color, axis)
		if a != b {
			return a < b
		}
		return entries[i].index < entries[j].index
	})
	mid := len(entries) / 2
	return &kdNode{
		color: entries[mid].color,
		index: entries[mid].index,
		left:  buildKD(entries[:mid], depth+1),
		right: buildKD(entries[mid+1:], depth+1),
	}
}

func sqDist(c header.RGB, r, g, b uint8) int {
	dr := int(c.R) - int(r)
	dg := int(c.G) - int(g)
	db := int(c.B) - int(b)
	return dr*dr + dg*dg + db*db
}

// Nearest returns the palette index of the color closest to (r,g,b) in
// squared Euclidean distance, ties resolved to the smaller index.
func (t *KDTree) Nearest(r, g, b uint8) int {
	bestIdx, bestDist := -1, 1 << 30
	var walk func(n *kdNode, depth int)
	walk = func(n *kdNode, depth int) {
		if n == nil {
			return
		}
		d := sqDist(n.color, r, g, b)
		if d < bestDist || (d == bestDist && n.index < bestIdx) {
			bestDist, bestIdx = d, n.index
		}
		axis := depth % 3
		target := [3]uint8{r, g, b}
		diff := int(target[axis]) - axisValue(n.color, axis)
		near, far := n.left, n.right
		if diff > 0 {
			near, far = n.right, n.left
		}
		walk(near, depth+1)
		// The far side can only improve the result when the splitting
		// plane is no farther than the best distance; equality is kept
		// so equidistant smaller indices are still found.
		if diff*diff <= bestDist {
			walk(far, depth+1)
		}
	}
	walk(t.root, 0)
	return bestIdx
}
