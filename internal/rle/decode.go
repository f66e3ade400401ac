// Package rle implements the BMP run-length codecs: the RLE4 and RLE8
// escape-coded formats and the OS/2 RLE24 variant on the decode side, and
// RLE4/RLE8 on the encode side.
package rle

import "github.com/deepteams/bmp/internal/header"

// Format selects the run-length variant.
type Format int

const (
	RLE8 Format = iota
	RLE4
	RLE24
)

// decoder tracks the output cursor while replaying an RLE stream. The
// destination is a 3-channel RGB raster in top-down row order; writes
// outside it are dropped, matching real-world producers that overshoot.
type decoder struct {
	dst           []byte
	width, height int
	x, y          int
	yStep         int
	palette       *header.Palette
}

func (d *decoder) put(r, g, b uint8) {
	if d.x >= 0 && d.x < d.width && d.y >= 0 && d.y < d.height {
		off := (d.y*d.width + d.x) * 3
		d.dst[off] = r
		d.dst[off+1] = g
		d.dst[off+2] = b
	}
	d.x++
}

func (d *decoder) putIndex(idx uint8) {
	e := d.palette.Entries[idx]
	d.put(e.R, e.G, e.B)
}

// Decode replays stream into a width*height*3 RGB buffer. The cursor starts
// on the last output row for bottom-up images and on the first for top-down
// ones; decoding stops at the end-of-bitmap escape or when the stream runs
// out. Pixels the stream never reaches stay zero.
func Decode(stream []byte, width, height int, topDown bool, format Format, palette *header.Palette) []byte {
	d := &decoder{
		dst:    make([]byte, width*height*3),
		width:  width,
		height: height,
		yStep:  -1,
		y:      height - 1,
	}
	if topDown {
		d.yStep = 1
		d.y = 0
	}
	if format != RLE24 {
		d.palette = palette
	}

	pos := 0
	for pos+2 <= len(stream) {
		count, value := stream[pos], stream[pos+1]
		pos += 2
		if count > 0 {
			pos = d.encoded(stream, pos, int(count), value, format)
			continue
		}
		switch value {
		case 0: // end of line
			d.x = 0
			d.y += d.yStep
		case 1: // end of bitmap
			return d.dst
		case 2: // delta
			if pos+2 > len(stream) {
				return d.dst
			}
			d.x += int(stream[pos])
			d.y += int(stream[pos+1]) * d.yStep
			pos += 2
		default: // absolute mode
			pos = d.absolute(stream, pos, int(value), format)
		}
	}
	return d.dst
}

// encoded replays one encoded-mode token: count pixels derived from value.
// For RLE24 the token's value byte is the blue component and two more bytes
// follow. Returns the new stream position.
func (d *decoder) encoded(stream []byte, pos, count int, value byte, format Format) int {
	switch format {
	case RLE8:
		for i := 0; i < count; i++ {
			d.putIndex(value)
		}
	case RLE4:
		hi, lo := value>>4&0xF, value&0xF
		for i := 0; i < count; i++ {
			if i&1 == 0 {
				d.putIndex(hi)
			} else {
				d.putIndex(lo)
			}
		}
	case RLE24:
		if pos+2 > len(stream) {
			return len(stream)
		}
		b, g, r := value, stream[pos], stream[pos+1]
		pos += 2
		for i := 0; i < count; i++ {
			d.put(r, g, b)
		}
	}
	return pos
}

// absolute replays one absolute-mode block of count uncompressed pixels,
// consuming the word-alignment padding byte that follows odd-length blocks.
func (d *decoder) absolute(stream []byte, pos, count int, format Format) int {
	switch format {
	case RLE8:
		for i := 0; i < count && pos < len(stream); i++ {
			d.putIndex(stream[pos])
			pos++
		}
		if count&1 != 0 {
			pos++
		}
	case RLE4:
		byteCount := (count + 1) / 2
		for i := 0; i < count; i++ {
			off := pos + i/2
			if off >= len(stream) {
				break
			}
			v := stream[off]
			if i&1 == 0 {
				v >>= 4
			}
			d.putIndex(v & 0xF)
		}
		pos += byteCount
		if byteCount&1 != 0 {
			pos++
		}
	case RLE24:
		for i := 0; i < count && pos+3 <= len(stream); i++ {
			d.put(stream[pos+2], stream[pos+1], stream[pos])
			pos += 3
		}
		if count*3&1 != 0 {
			pos++
		}
	}
	return pos
}
