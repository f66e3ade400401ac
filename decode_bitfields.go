package bmp

import (
	"fmt"

	"github.com/deepteams/bmp/internal/header"
)

// defaultMasks returns the masks implied when a BITFIELDS file stores all
// three RGB masks as zero.
func defaultMasks(bpp int) (r, g, b, a uint32) {
	if bpp == 16 {
		return 0x7C00, 0x03E0, 0x001F, 0
	}
	return 0x00FF0000, 0x0000FF00, 0x000000FF, 0xFF000000
}

// decodeBitfields handles compression 3 and 6 at 16 or 32 bpp: each pixel
// is a little-endian word whose channels are located by the header masks.
func decodeBitfields(data []byte, hdr *header.Header, opts *DecodeOptions) (*RawImage, error) {
	bpp := int(hdr.BitsPerPixel)
	if bpp != 16 && bpp != 32 {
		return nil, fmt.Errorf("%w: %d bpp with BITFIELDS", ErrUnsupportedBitDepth, bpp)
	}

	rMask, gMask, bMask, aMask := hdr.RedMask, hdr.GreenMask, hdr.BlueMask, hdr.AlphaMask
	if rMask == 0 && gMask == 0 && bMask == 0 {
		rMask, gMask, bMask, aMask = defaultMasks(bpp)
	}

	type channel struct {
		mask   uint32
		info   maskInfo
		scaler channelScaler
	}
	mk := func(mask uint32) channel {
		info := analyzeMask(mask)
		return channel{mask: mask, info: info, scaler: newChannelScaler(info.width)}
	}
	cr, cg, cb, ca := mk(rMask), mk(gMask), mk(bMask), mk(aMask)

	channels := 3
	if ca.info.width > 0 {
		channels = 4
	} else if opts.DesiredChannels == 4 {
		channels = 4
	}

	w, h := hdr.AbsWidth(), hdr.AbsHeight()
	raw := &RawImage{Width: w, Height: h, Channels: channels, Pix: make([]byte, w*h*channels)}
	rr := newRowReader(data, hdr)

	extract := func(p uint32, c channel) uint8 {
		if c.info.width == 0 {
			return 0
		}
		return c.scaler.scale((p & c.mask) >> uint(c.info.shift))
	}

	for y := 0; y < h; y++ {
		row := rr.row(y)
		out := raw.Pix[y*w*channels:]
		for x := 0; x < w; x++ {
			var p uint32
			if bpp == 16 {
				p = uint32(header.ReadLE16(row[x*2:]))
			} else {
				p = header.ReadLE32(row[x*4:])
			}
			out[x*channels] = extract(p, cr)
			out[x*channels+1] = extract(p, cg)
			out[x*channels+2] = extract(p, cb)
			if channels == 4 {
				if ca.info.width > 0 {
					out[x*4+3] = extract(p, ca)
				} else {
					out[x*4+3] = 255
				}
			}
		}
	}
	return raw, nil
}
