package header

// RGB is one color table entry. The file stores entries as {B, G, R} with a
// trailing reserved byte everywhere except CORE headers.
type RGB struct {
	R, G, B uint8
}

// Palette is the color table of an indexed image. It always holds exactly
// 1<<BitsPerPixel entries so that any pixel value is a valid index; slots
// the file did not supply are black.
type Palette struct {
	Entries []RGB
	// Supplied is the number of entries actually read from the file.
	Supplied int
}

// ReadPalette extracts the color table between the DIB header and the pixel
// area. The effective entry count is the smallest of ColorsUsed (when
// non-zero), the room between header end and DataOffset, and 1<<bpp.
func ReadPalette(data []byte, h *Header) *Palette {
	bpp := int(h.BitsPerPixel)
	max := 1 << bpp

	bytesPerEntry := 4
	if h.Size == SizeCore {
		bytesPerEntry = 3
	}

	start := FileHeaderSize + int(h.Size)
	end := int(h.DataOffset)
	if end > len(data) {
		end = len(data)
	}
	avail := 0
	if end > start {
		avail = (end - start) / bytesPerEntry
	}

	count := max
	if h.ColorsUsed != 0 && int(h.ColorsUsed) < count {
		count = int(h.ColorsUsed)
	}
	if avail < count {
		count = avail
	}

	p := &Palette{
		Entries:  make([]RGB, max),
		Supplied: count,
	}
	for i := 0; i < count; i++ {
		off := start + i*bytesPerEntry
		p.Entries[i] = RGB{
			B: data[off],
			G: data[off+1],
			R: data[off+2],
		}
	}
	return p
}

// Grayscale reports whether every supplied entry has R == G == B.
func (p *Palette) Grayscale() bool {
	for _, e := range p.Entries[:p.Supplied] {
		if e.R != e.G || e.G != e.B {
			return false
		}
	}
	return true
}
