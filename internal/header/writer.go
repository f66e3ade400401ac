package header

// Masks is the encode-side set of channel masks written for BITFIELDS and
// ALPHABITFIELDS images.
type Masks struct {
	Red, Green, Blue, Alpha uint32
}

// WriteParams describes the headers to emit in front of an encoded pixel
// area.
type WriteParams struct {
	Width, Height int
	BitsPerPixel  int
	Compression   Compression
	ImageSize     int    // size of the encoded pixel area in bytes
	Palette       []RGB  // written when non-empty, 4 bytes per entry
	Masks         *Masks // required for BITFIELDS/ALPHABITFIELDS
	HeaderSize    uint32 // SizeInfo, SizeV4 or SizeV5
	TopDown       bool
}

// maskBlockSize returns the size of the separate mask block that follows a
// plain INFO header: 12 bytes for BITFIELDS, 16 for ALPHABITFIELDS, else 0.
// V4/V5 headers carry the masks inline and need no block.
func maskBlockSize(headerSize uint32, c Compression) int {
	if headerSize != SizeInfo {
		return 0
	}
	switch c {
	case BiBitfields:
		return 12
	case BiAlphaBitfields:
		return 16
	}
	return 0
}

// Write emits the file header, DIB header, optional mask block and optional
// palette, returning the complete prefix of the output file. The caller
// appends ImageSize bytes of pixel data immediately after.
func Write(p *WriteParams) []byte {
	maskBlock := maskBlockSize(p.HeaderSize, p.Compression)
	dataOffset := FileHeaderSize + int(p.HeaderSize) + maskBlock + 4*len(p.Palette)

	buf := make([]byte, dataOffset)

	// File header.
	PutLE16(buf, Signature)
	PutLE32(buf[2:], uint32(dataOffset+p.ImageSize))
	PutLE32(buf[10:], uint32(dataOffset))

	// DIB header.
	height := int32(p.Height)
	if p.TopDown {
		height = -height
	}
	PutLE32(buf[14:], p.HeaderSize)
	PutLE32(buf[18:], uint32(int32(p.Width)))
	PutLE32(buf[22:], uint32(height))
	PutLE16(buf[26:], 1) // planes
	PutLE16(buf[28:], uint16(p.BitsPerPixel))
	PutLE32(buf[30:], uint32(p.Compression))
	PutLE32(buf[34:], uint32(p.ImageSize))
	PutLE32(buf[38:], ppmDefault)
	PutLE32(buf[42:], ppmDefault)
	// ColorsUsed and ColorsImportant stay zero.

	if p.HeaderSize >= SizeV4 {
		if p.Masks != nil {
			PutLE32(buf[54:], p.Masks.Red)
			PutLE32(buf[58:], p.Masks.Green)
			PutLE32(buf[62:], p.Masks.Blue)
			PutLE32(buf[66:], p.Masks.Alpha)
		}
		PutLE32(buf[70:], CSTypeSRGB)
		// Endpoints and gamma stay zero.
		if p.HeaderSize >= SizeV5 {
			PutLE32(buf[122:], IntentGraphics)
			// Profile offset/size and the reserved word stay zero.
		}
	}

	off := FileHeaderSize + int(p.HeaderSize)
	if maskBlock > 0 {
		PutLE32(buf[off:], p.Masks.Red)
		PutLE32(buf[off+4:], p.Masks.Green)
		PutLE32(buf[off+8:], p.Masks.Blue)
		if maskBlock == 16 {
			PutLE32(buf[off+12:], p.Masks.Alpha)
		}
		off += maskBlock
	}

	for _, e := range p.Palette {
		buf[off] = e.B
		buf[off+1] = e.G
		buf[off+2] = e.R
		off += 4
	}

	return buf
}
