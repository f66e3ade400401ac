package header

import (
	"errors"
	"fmt"
)

// Errors returned by Parse.
var (
	ErrInvalidSignature  = errors.New("bmp: invalid signature")
	ErrUnsupportedHeader = errors.New("bmp: unsupported DIB header size")
	ErrTruncated         = errors.New("bmp: truncated header")
)

// Header is the flat, normalized view of any supported DIB header variant.
// Fields absent from a given variant are zero; mask fields hold their
// effective file values (zero meaning "not present", never a default).
type Header struct {
	DataOffset uint32 // byte offset from file start to the pixel area
	Size       uint32 // DIB header size: 12, 16, 40, 52, 56, 64, 108 or 124

	Width  int32 // always positive in valid files
	Height int32 // negative means top-down row order

	Planes          uint16
	BitsPerPixel    uint16
	Compression     Compression
	ImageSize       uint32
	XPelsPerMeter   int32
	YPelsPerMeter   int32
	ColorsUsed      uint32
	ColorsImportant uint32

	RedMask   uint32
	GreenMask uint32
	BlueMask  uint32
	AlphaMask uint32

	// Extended holds the V4/V5 colorimetry tail. It is preserved but never
	// interpreted by the decoder. Nil for headers smaller than V4.
	Extended *Extended
}

// Extended carries the BITMAPV4HEADER/BITMAPV5HEADER fields beyond the
// channel masks: color space tag, CIE endpoints, gamma, and (V5 only)
// rendering intent and ICC profile location.
type Extended struct {
	CSType     uint32
	Endpoints  [9]int32 // CIEXYZTRIPLE, FXPT2DOT30 fixed point
	GammaRed   uint32
	GammaGreen uint32
	GammaBlue  uint32

	// V5 only.
	Intent      uint32
	ProfileData uint32 // offset from the start of the DIB header
	ProfileSize uint32
}

// TopDown reports whether the pixel rows are stored first row first.
func (h *Header) TopDown() bool { return h.Height < 0 }

// AbsWidth returns the width as an int.
func (h *Header) AbsWidth() int { return int(h.Width) }

// AbsHeight returns the magnitude of the height.
func (h *Header) AbsHeight() int {
	if h.Height < 0 {
		return int(-h.Height)
	}
	return int(h.Height)
}

// Stride returns the byte length of one row in the pixel area, including
// the padding that aligns each row to a 4-byte boundary.
func (h *Header) Stride() int {
	return Stride(h.AbsWidth(), int(h.BitsPerPixel))
}

// Stride returns ceil(bpp*width/32)*4, the padded row length in bytes.
func Stride(width, bpp int) int {
	return (bpp*width + 31) / 32 * 4
}

// Parse reads the file header and DIB header from the start of data and
// returns the normalized result. It fails with ErrInvalidSignature,
// ErrUnsupportedHeader or ErrTruncated; anything else about the image
// (dimensions, bit depth, compression) is left to the caller to judge.
func Parse(data []byte) (*Header, error) {
	if len(data) < FileHeaderSize+4 {
		return nil, ErrTruncated
	}
	if ReadLE16(data) != Signature {
		return nil, ErrInvalidSignature
	}
	// Bytes 2-9 (declared file size, reserved words) are not validated:
	// real producers routinely write garbage there.
	h := &Header{
		DataOffset: ReadLE32(data[10:]),
		Size:       ReadLE32(data[14:]),
	}
	if int64(FileHeaderSize)+int64(h.Size) > int64(len(data)) {
		return nil, ErrTruncated
	}

	switch {
	case h.Size == SizeCore:
		// CORE stores width and height as unsigned 16-bit values.
		h.Width = int32(ReadLE16(data[18:]))
		h.Height = int32(ReadLE16(data[20:]))
		h.Planes = ReadLE16(data[22:])
		h.BitsPerPixel = ReadLE16(data[24:])

	case h.Size == SizeOS2 || h.Size == SizeOS2b:
		h.Width = int32(ReadLE32(data[18:]))
		h.Height = int32(ReadLE32(data[22:]))
		h.Planes = ReadLE16(data[26:])
		h.BitsPerPixel = ReadLE16(data[28:])
		if h.Size == SizeOS2b {
			h.Compression = Compression(ReadLE32(data[30:]))
			h.ImageSize = ReadLE32(data[34:])
			h.XPelsPerMeter = int32(ReadLE32(data[38:]))
			h.YPelsPerMeter = int32(ReadLE32(data[42:]))
			h.ColorsUsed = ReadLE32(data[46:])
			h.ColorsImportant = ReadLE32(data[50:])
		}
		// The OS/2 fields past offset 50 (units, recording, halftoning)
		// carry no pixel-layout information and are skipped.

	case h.Size >= SizeInfo:
		h.Width = int32(ReadLE32(data[18:]))
		h.Height = int32(ReadLE32(data[22:]))
		h.Planes = ReadLE16(data[26:])
		h.BitsPerPixel = ReadLE16(data[28:])
		h.Compression = Compression(ReadLE32(data[30:]))
		h.ImageSize = ReadLE32(data[34:])
		h.XPelsPerMeter = int32(ReadLE32(data[38:]))
		h.YPelsPerMeter = int32(ReadLE32(data[42:]))
		h.ColorsUsed = ReadLE32(data[46:])
		h.ColorsImportant = ReadLE32(data[50:])

		if h.Size >= SizeV2 {
			h.RedMask = ReadLE32(data[54:])
			h.GreenMask = ReadLE32(data[58:])
			h.BlueMask = ReadLE32(data[62:])
		}
		if h.Size >= SizeV3 {
			h.AlphaMask = ReadLE32(data[66:])
		}
		if h.Size == SizeInfo {
			// A plain INFO header with BITFIELDS compression is followed
			// by a separate 12-byte (16 for ALPHABITFIELDS) mask block.
			readMaskBlock(h, data)
		}
		if h.Size >= SizeV4 {
			h.Extended = parseExtended(data, h.Size)
		}

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedHeader, h.Size)
	}

	return h, nil
}

// readMaskBlock reads the channel masks that follow a 40-byte INFO header
// when the compression is BITFIELDS or ALPHABITFIELDS. The block is only
// present when DataOffset leaves room for it.
func readMaskBlock(h *Header, data []byte) {
	if h.Compression != BiBitfields && h.Compression != BiAlphaBitfields {
		return
	}
	const off = FileHeaderSize + SizeInfo
	need := uint32(off + 12)
	if h.Compression == BiAlphaBitfields {
		need = off + 16
	}
	if h.DataOffset < need || len(data) < int(need) {
		return
	}
	h.RedMask = ReadLE32(data[off:])
	h.GreenMask = ReadLE32(data[off+4:])
	h.BlueMask = ReadLE32(data[off+8:])
	if h.Compression == BiAlphaBitfields {
		h.AlphaMask = ReadLE32(data[off+12:])
	}
}

// parseExtended reads the V4 colorimetry fields and, for V5, the rendering
// intent and profile location. Bounds were checked by Parse.
func parseExtended(data []byte, size uint32) *Extended {
	ext := &Extended{
		CSType: ReadLE32(data[70:]),
	}
	for i := range ext.Endpoints {
		ext.Endpoints[i] = int32(ReadLE32(data[74+4*i:]))
	}
	ext.GammaRed = ReadLE32(data[110:])
	ext.GammaGreen = ReadLE32(data[114:])
	ext.GammaBlue = ReadLE32(data[118:])
	if size >= SizeV5 {
		ext.Intent = ReadLE32(data[122:])
		ext.ProfileData = ReadLE32(data[126:])
		ext.ProfileSize = ReadLE32(data[130:])
	}
	return ext
}
