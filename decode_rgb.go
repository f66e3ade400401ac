package bmp

import (
	"fmt"
	"math"

	"github.com/deepteams/bmp/internal/header"
)

// rowReader hands out the bytes of successive BMP pixel rows in top-down
// output order, resolving the file's row order and zero-filling rows the
// buffer does not fully cover. The returned slice is reused between calls.
type rowReader struct {
	data    []byte
	offset  int
	stride  int
	height  int
	topDown bool
	scratch []byte
}

func newRowReader(data []byte, hdr *header.Header) *rowReader {
	return &rowReader{
		data:    data,
		offset:  int(hdr.DataOffset),
		stride:  hdr.Stride(),
		height:  hdr.AbsHeight(),
		topDown: hdr.TopDown(),
		scratch: make([]byte, hdr.Stride()),
	}
}

// row returns the pixel bytes of output row y.
func (rr *rowReader) row(y int) []byte {
	src := y
	if !rr.topDown {
		src = rr.height - 1 - y
	}
	start := rr.offset + src*rr.stride
	end := start + rr.stride
	if start >= 0 && end <= len(rr.data) {
		return rr.data[start:end]
	}
	// Truncated or out-of-range row: present the available bytes padded
	// with zeros rather than reading out of bounds.
	for i := range rr.scratch {
		rr.scratch[i] = 0
	}
	if start >= 0 && start < len(rr.data) {
		copy(rr.scratch, rr.data[start:])
	}
	return rr.scratch
}

// decodeRGB handles compression 0: packed indexed pixels and the direct
// RGB555/BGR/BGRA/s2.13 layouts.
func decodeRGB(data []byte, hdr *header.Header, opts *DecodeOptions) (*RawImage, error) {
	switch hdr.BitsPerPixel {
	case 1, 2, 4, 8:
		return decodeIndexed(data, hdr)
	case 16:
		return decodeRGB555(data, hdr)
	case 24:
		return decodeBGR(data, hdr)
	case 32:
		return decodeBGRA(data, hdr, opts)
	case 64:
		return decodeS213(data, hdr)
	}
	return nil, fmt.Errorf("%w: %d bpp with BI_RGB", ErrUnsupportedBitDepth, hdr.BitsPerPixel)
}

// newIndexedImage allocates the output raster for a palette-indexed decode:
// one channel when the palette is grayscale, three otherwise.
func newIndexedImage(w, h int, pal *header.Palette) *RawImage {
	channels := 3
	if pal.Grayscale() {
		channels = 1
	}
	return &RawImage{Width: w, Height: h, Channels: channels, Pix: make([]byte, w*h*channels)}
}

// writeIndexedRow resolves one row of palette indices into output row y.
func writeIndexedRow(raw *RawImage, pal *header.Palette, y int, indices []byte) {
	if raw.Channels == 1 {
		out := raw.Pix[y*raw.Width:]
		for x, idx := range indices {
			out[x] = pal.Entries[idx].R
		}
		return
	}
	out := raw.Pix[y*raw.Width*3:]
	for x, idx := range indices {
		e := pal.Entries[idx]
		out[x*3] = e.R
		out[x*3+1] = e.G
		out[x*3+2] = e.B
	}
}

func decodeIndexed(data []byte, hdr *header.Header) (*RawImage, error) {
	w, h := hdr.AbsWidth(), hdr.AbsHeight()
	bpp := int(hdr.BitsPerPixel)
	pal := header.ReadPalette(data, hdr)
	raw := newIndexedImage(w, h, pal)

	rr := newRowReader(data, hdr)
	indices := make([]byte, w)
	mask := byte(1<<uint(bpp) - 1)
	for y := 0; y < h; y++ {
		row := rr.row(y)
		if bpp == 8 {
			copy(indices, row[:w])
		} else {
			// Sub-byte pixels are packed MSB-first; pad bits in the last
			// byte of each row carry no pixel content.
			bit := 8 - bpp
			off := 0
			for x := 0; x < w; x++ {
				indices[x] = row[off] >> uint(bit) & mask
				if bit == 0 {
					bit = 8 - bpp
					off++
				} else {
					bit -= bpp
				}
			}
		}
		writeIndexedRow(raw, pal, y, indices)
	}
	return raw, nil
}

// decodeRGB555 handles 16-bpp BI_RGB, which is always the 5-5-5 layout;
// 5-6-5 files must declare BITFIELDS masks.
func decodeRGB555(data []byte, hdr *header.Header) (*RawImage, error) {
	w, h := hdr.AbsWidth(), hdr.AbsHeight()
	raw := &RawImage{Width: w, Height: h, Channels: 3, Pix: make([]byte, w*h*3)}
	rr := newRowReader(data, hdr)
	for y := 0; y < h; y++ {
		row := rr.row(y)
		out := raw.Pix[y*w*3:]
		for x := 0; x < w; x++ {
			p := header.ReadLE16(row[x*2:])
			out[x*3] = lut5[p>>10&0x1F]
			out[x*3+1] = lut5[p>>5&0x1F]
			out[x*3+2] = lut5[p&0x1F]
		}
	}
	return raw, nil
}

func decodeBGR(data []byte, hdr *header.Header) (*RawImage, error) {
	w, h := hdr.AbsWidth(), hdr.AbsHeight()
	raw := &RawImage{Width: w, Height: h, Channels: 3, Pix: make([]byte, w*h*3)}
	rr := newRowReader(data, hdr)
	for y := 0; y < h; y++ {
		row := rr.row(y)
		out := raw.Pix[y*w*3:]
		for x := 0; x < w; x++ {
			out[x*3] = row[x*3+2]
			out[x*3+1] = row[x*3+1]
			out[x*3+2] = row[x*3]
		}
	}
	return raw, nil
}

// decodeBGRA handles 32-bpp BI_RGB. The fourth byte is officially reserved
// but commonly holds alpha, so the rows are scanned first: any non-zero
// fourth byte makes the output 4-channel with the stored alpha, otherwise
// the channel is dropped (or forced opaque when the caller keeps it).
func decodeBGRA(data []byte, hdr *header.Header, opts *DecodeOptions) (*RawImage, error) {
	w, h := hdr.AbsWidth(), hdr.AbsHeight()
	rr := newRowReader(data, hdr)

	hasAlpha := false
	for y := 0; y < h && !hasAlpha; y++ {
		row := rr.row(y)
		for x := 0; x < w; x++ {
			if row[x*4+3] != 0 {
				hasAlpha = true
				break
			}
		}
	}

	channels := 3
	forceOpaque := false
	if hasAlpha {
		channels = 4
	} else if opts.KeepEmptyAlpha || opts.DesiredChannels == 4 {
		channels = 4
		forceOpaque = true
	}

	raw := &RawImage{Width: w, Height: h, Channels: channels, Pix: make([]byte, w*h*channels)}
	for y := 0; y < h; y++ {
		row := rr.row(y)
		out := raw.Pix[y*w*channels:]
		for x := 0; x < w; x++ {
			out[x*channels] = row[x*4+2]
			out[x*channels+1] = row[x*4+1]
			out[x*channels+2] = row[x*4]
			if channels == 4 {
				if forceOpaque {
					out[x*4+3] = 255
				} else {
					out[x*4+3] = row[x*4+3]
				}
			}
		}
	}
	return raw, nil
}

// srgbEncode applies the sRGB transfer function to a linear value in [0,1].
func srgbEncode(c float64) float64 {
	if c <= 0.0031308 {
		return 12.92 * c
	}
	return 1.055*math.Pow(c, 1/2.4) - 0.055
}

// decodeS213 handles 64-bpp pixels: four little-endian s2.13 fixed-point
// components in B,G,R,A order. RGB components are converted from linear
// light to sRGB; alpha stays linear.
func decodeS213(data []byte, hdr *header.Header) (*RawImage, error) {
	w, h := hdr.AbsWidth(), hdr.AbsHeight()
	raw := &RawImage{Width: w, Height: h, Channels: 4, Pix: make([]byte, w*h*4)}
	rr := newRowReader(data, hdr)

	component := func(row []byte, off int) float64 {
		v := float64(int16(header.ReadLE16(row[off:]))) / 8192
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}

	for y := 0; y < h; y++ {
		row := rr.row(y)
		out := raw.Pix[y*w*4:]
		for x := 0; x < w; x++ {
			b := component(row, x*8)
			g := component(row, x*8+2)
			r := component(row, x*8+4)
			a := component(row, x*8+6)
			out[x*4] = uint8(math.Round(srgbEncode(r) * 255))
			out[x*4+1] = uint8(math.Round(srgbEncode(g) * 255))
			out[x*4+2] = uint8(math.Round(srgbEncode(b) * 255))
			out[x*4+3] = uint8(math.Round(a * 255))
		}
	}
	return raw, nil
}
