package bmp

import "github.com/deepteams/bmp/internal/header"

// srcPixel reads one source pixel as RGBA, expanding grayscale and
// defaulting alpha to opaque.
func srcPixel(raw *RawImage, x, y int) (r, g, b, a uint8) {
	i := (y*raw.Width + x) * raw.Channels
	switch raw.Channels {
	case 1:
		v := raw.Pix[i]
		return v, v, v, 255
	case 3:
		return raw.Pix[i], raw.Pix[i+1], raw.Pix[i+2], 255
	default:
		return raw.Pix[i], raw.Pix[i+1], raw.Pix[i+2], raw.Pix[i+3]
	}
}

// fileRow maps a top-down source row to its position in the pixel area.
func fileRow(y, height int, topDown bool) int {
	if topDown {
		return y
	}
	return height - 1 - y
}

func encodeRGB555(raw *RawImage, topDown bool) []byte {
	stride := header.Stride(raw.Width, 16)
	out := make([]byte, stride*raw.Height)
	for y := 0; y < raw.Height; y++ {
		row := out[fileRow(y, raw.Height, topDown)*stride:]
		for x := 0; x < raw.Width; x++ {
			r, g, b, _ := srcPixel(raw, x, y)
			p := uint16(r>>3)<<10 | uint16(g>>3)<<5 | uint16(b>>3)
			header.PutLE16(row[x*2:], p)
		}
	}
	return out
}

func encodeBGR(raw *RawImage, topDown bool) []byte {
	stride := header.Stride(raw.Width, 24)
	out := make([]byte, stride*raw.Height)
	for y := 0; y < raw.Height; y++ {
		row := out[fileRow(y, raw.Height, topDown)*stride:]
		for x := 0; x < raw.Width; x++ {
			r, g, b, _ := srcPixel(raw, x, y)
			row[x*3] = b
			row[x*3+1] = g
			row[x*3+2] = r
		}
	}
	return out
}

func encodeBGRA(raw *RawImage, topDown bool) []byte {
	stride := header.Stride(raw.Width, 32)
	out := make([]byte, stride*raw.Height)
	for y := 0; y < raw.Height; y++ {
		row := out[fileRow(y, raw.Height, topDown)*stride:]
		for x := 0; x < raw.Width; x++ {
			r, g, b, a := srcPixel(raw, x, y)
			row[x*4] = b
			row[x*4+1] = g
			row[x*4+2] = r
			row[x*4+3] = a
		}
	}
	return out
}

// packIndexed packs palette indices into the 1/4/8-bpp layouts, MSB-first
// within each byte, rows padded to the 4-byte stride.
func packIndexed(indices []byte, width, height, bpp int, topDown bool) []byte {
	stride := header.Stride(width, bpp)
	out := make([]byte, stride*height)
	for y := 0; y < height; y++ {
		row := out[fileRow(y, height, topDown)*stride:]
		src := indices[y*width : (y+1)*width]
		switch bpp {
		case 8:
			copy(row, src)
		case 4:
			for x, idx := range src {
				if x&1 == 0 {
					row[x/2] |= idx << 4
				} else {
					row[x/2] |= idx & 0xF
				}
			}
		case 1:
			for x, idx := range src {
				if idx&1 != 0 {
					row[x/8] |= 1 << uint(7-x&7)
				}
			}
		}
	}
	return out
}

// encodeBitfields packs pixels through per-channel 8-bit to N-bit scaling
// tables located by the masks, as 16- or 32-bit little-endian words.
func encodeBitfields(raw *RawImage, topDown bool, bpp int, bf *Bitfields) []byte {
	type channel struct {
		mask  uint32
		shift uint
		lut   [256]uint32
	}
	mk := func(mask uint32) channel {
		info := analyzeMask(mask)
		return channel{mask: mask, shift: uint(info.shift), lut: buildScaleFrom8(info.width)}
	}
	cr, cg, cb := mk(bf.RedMask), mk(bf.GreenMask), mk(bf.BlueMask)
	var ca channel
	hasAlpha := bf.AlphaMask != 0
	if hasAlpha {
		ca = mk(bf.AlphaMask)
	}

	stride := header.Stride(raw.Width, bpp)
	out := make([]byte, stride*raw.Height)
	for y := 0; y < raw.Height; y++ {
		row := out[fileRow(y, raw.Height, topDown)*stride:]
		for x := 0; x < raw.Width; x++ {
			r, g, b, a := srcPixel(raw, x, y)
			p := cr.lut[r]<<cr.shift&cr.mask |
				cg.lut[g]<<cg.shift&cg.mask |
				cb.lut[b]<<cb.shift&cb.mask
			if hasAlpha {
				p |= ca.lut[a] << ca.shift & ca.mask
			}
			if bpp == 16 {
				header.PutLE16(row[x*2:], uint16(p))
			} else {
				header.PutLE32(row[x*4:], p)
			}
		}
	}
	return out
}
