package bmp

import (
	"fmt"

	"github.com/deepteams/bmp/internal/header"
	"github.com/deepteams/bmp/internal/quant"
	"github.com/deepteams/bmp/internal/rle"
)

// Bitfields is the encode-side set of channel masks for BITFIELDS and
// ALPHABITFIELDS output. The RGB masks must be non-zero, contiguous and
// mutually disjoint, and their union must fit in the pixel width.
type Bitfields struct {
	RedMask   uint32
	GreenMask uint32
	BlueMask  uint32
	AlphaMask uint32
}

// EncoderOptions controls BMP encoding.
type EncoderOptions struct {
	// BitsPerPixel selects the stored pixel width: 1, 4, 8, 16, 24 or 32.
	// Zero picks a default from the image shape: 8 for grayscale, 24 for
	// 3-channel, 32 for 4-channel input.
	BitsPerPixel int

	// Compression selects the storage scheme: BiRGB (default), BiRLE8,
	// BiRLE4, BiBitfields or BiAlphaBitfields.
	Compression Compression

	// HeaderType selects the DIB header version (default HeaderInfo).
	HeaderType HeaderType

	// TopDown stores rows first row first instead of the default
	// bottom-up order. Not valid with RLE compression.
	TopDown bool

	// Palette supplies the color table for indexed output. When nil, a
	// grayscale ramp is used for 1-channel input and a Median Cut palette
	// is derived otherwise.
	Palette []RGB

	// Bitfields supplies the channel masks for BITFIELDS output. When
	// nil, RGB565 masks are used at 16 bpp and BGRA masks at 32 bpp.
	Bitfields *Bitfields
}

// DefaultEncoderOptions returns options producing an uncompressed
// BITMAPINFOHEADER file at the input's natural bit depth.
func DefaultEncoderOptions() *EncoderOptions {
	return &EncoderOptions{HeaderType: HeaderInfo}
}

// defaultBitfields returns the masks used when BITFIELDS output is
// requested without explicit masks.
func defaultBitfields(bpp int) *Bitfields {
	if bpp == 16 {
		return &Bitfields{RedMask: 0xF800, GreenMask: 0x07E0, BlueMask: 0x001F}
	}
	return &Bitfields{RedMask: 0x00FF0000, GreenMask: 0x0000FF00, BlueMask: 0x000000FF, AlphaMask: 0xFF000000}
}

// EncodeRaw encodes raw pixel data as a complete BMP file.
// A nil opts behaves like DefaultEncoderOptions().
func EncodeRaw(raw *RawImage, opts *EncoderOptions) ([]byte, error) {
	if err := validateRaw(raw); err != nil {
		return nil, err
	}
	resolved, err := resolveOptions(raw, opts)
	if err != nil {
		return nil, err
	}

	bpp := resolved.BitsPerPixel
	params := &header.WriteParams{
		Width:        raw.Width,
		Height:       raw.Height,
		BitsPerPixel: bpp,
		Compression:  resolved.Compression,
		HeaderSize:   uint32(resolved.HeaderType),
		TopDown:      resolved.TopDown,
	}

	var pix []byte
	switch resolved.Compression {
	case BiRGB:
		switch bpp {
		case 1, 4, 8:
			palette, indices := indexedPixels(raw, resolved)
			params.Palette = palette
			pix = packIndexed(indices, raw.Width, raw.Height, bpp, resolved.TopDown)
		case 16:
			pix = encodeRGB555(raw, resolved.TopDown)
		case 24:
			pix = encodeBGR(raw, resolved.TopDown)
		case 32:
			pix = encodeBGRA(raw, resolved.TopDown)
		}

	case BiRLE8, BiRLE4:
		palette, indices := indexedPixels(raw, resolved)
		params.Palette = palette
		format := rle.RLE8
		if resolved.Compression == BiRLE4 {
			format = rle.RLE4
		}
		pix = rle.Encode(indices, raw.Width, raw.Height, format)

	case BiBitfields, BiAlphaBitfields:
		masks := resolved.Bitfields
		params.Masks = &header.Masks{
			Red:   masks.RedMask,
			Green: masks.GreenMask,
			Blue:  masks.BlueMask,
			Alpha: masks.AlphaMask,
		}
		pix = encodeBitfields(raw, resolved.TopDown, bpp, masks)
	}

	params.ImageSize = len(pix)
	out := header.Write(params)
	return append(out, pix...), nil
}

func validateRaw(raw *RawImage) error {
	if raw == nil || raw.Width <= 0 || raw.Height <= 0 {
		return fmt.Errorf("%w: non-positive size", ErrInvalidDimensions)
	}
	if raw.Channels != 1 && raw.Channels != 3 && raw.Channels != 4 {
		return fmt.Errorf("%w: %d channels", ErrInvalidDimensions, raw.Channels)
	}
	if len(raw.Pix) != raw.Width*raw.Height*raw.Channels {
		return fmt.Errorf("%w: %d pixel bytes for %dx%dx%d",
			ErrInvalidDimensions, len(raw.Pix), raw.Width, raw.Height, raw.Channels)
	}
	return nil
}

// resolveOptions fills in defaults and rejects invalid combinations.
func resolveOptions(raw *RawImage, opts *EncoderOptions) (*EncoderOptions, error) {
	r := &EncoderOptions{}
	if opts != nil {
		*r = *opts
	}
	if r.BitsPerPixel == 0 {
		switch raw.Channels {
		case 1:
			r.BitsPerPixel = 8
		case 3:
			r.BitsPerPixel = 24
		default:
			r.BitsPerPixel = 32
		}
	}
	switch r.BitsPerPixel {
	case 1, 4, 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrOptionConflict, r.BitsPerPixel)
	}
	if r.HeaderType == 0 {
		r.HeaderType = HeaderInfo
	}
	switch r.HeaderType {
	case HeaderInfo, HeaderV4, HeaderV5:
	default:
		return nil, fmt.Errorf("%w: header type %d", ErrOptionConflict, r.HeaderType)
	}

	switch r.Compression {
	case BiRGB:
	case BiRLE8:
		if r.BitsPerPixel != 8 {
			return nil, fmt.Errorf("%w: RLE8 requires 8 bpp, got %d", ErrOptionConflict, r.BitsPerPixel)
		}
	case BiRLE4:
		if r.BitsPerPixel != 4 {
			return nil, fmt.Errorf("%w: RLE4 requires 4 bpp, got %d", ErrOptionConflict, r.BitsPerPixel)
		}
	case BiBitfields:
		if r.BitsPerPixel != 16 && r.BitsPerPixel != 32 {
			return nil, fmt.Errorf("%w: BITFIELDS requires 16 or 32 bpp, got %d", ErrOptionConflict, r.BitsPerPixel)
		}
	case BiAlphaBitfields:
		if r.BitsPerPixel != 32 {
			return nil, fmt.Errorf("%w: ALPHABITFIELDS requires 32 bpp, got %d", ErrOptionConflict, r.BitsPerPixel)
		}
	default:
		return nil, fmt.Errorf("%w: cannot encode compression %d", ErrOptionConflict, r.Compression)
	}

	if r.TopDown && (r.Compression == BiRLE8 || r.Compression == BiRLE4) {
		return nil, fmt.Errorf("%w: RLE images cannot be top-down", ErrOptionConflict)
	}

	if r.Compression == BiBitfields || r.Compression == BiAlphaBitfields {
		if r.Bitfields == nil {
			r.Bitfields = defaultBitfields(r.BitsPerPixel)
		} else if err := validateBitfields(r.Bitfields, r.BitsPerPixel); err != nil {
			return nil, err
		}
	}

	if r.BitsPerPixel <= 8 && len(r.Palette) > 1<<uint(r.BitsPerPixel) {
		return nil, fmt.Errorf("%w: palette of %d entries at %d bpp",
			ErrOptionConflict, len(r.Palette), r.BitsPerPixel)
	}
	return r, nil
}

func validateBitfields(bf *Bitfields, bpp int) error {
	masks := []uint32{bf.RedMask, bf.GreenMask, bf.BlueMask, bf.AlphaMask}
	union := uint32(0)
	for i, m := range masks {
		if m == 0 {
			if i < 3 {
				return fmt.Errorf("%w: zero channel mask", ErrOptionConflict)
			}
			continue
		}
		info := analyzeMask(m)
		if (uint32(1)<<uint(info.width)-1)<<uint(info.shift) != m {
			return fmt.Errorf("%w: non-contiguous mask %#x", ErrOptionConflict, m)
		}
		if union&m != 0 {
			return fmt.Errorf("%w: overlapping channel masks", ErrOptionConflict)
		}
		union |= m
	}
	if bpp < 32 && union>>uint(bpp) != 0 {
		return fmt.Errorf("%w: masks exceed %d bpp", ErrOptionConflict, bpp)
	}
	return nil
}

// indexedPixels produces the palette and per-pixel indices for 1/4/8-bpp
// output: the caller's palette when supplied, a grayscale ramp for
// 1-channel input, or a Median Cut palette otherwise. The returned palette
// is padded to 1<<bpp entries.
func indexedPixels(raw *RawImage, opts *EncoderOptions) ([]RGB, []byte) {
	size := 1 << uint(opts.BitsPerPixel)
	var palette []RGB
	switch {
	case len(opts.Palette) > 0:
		palette = opts.Palette
	case raw.Channels == 1:
		palette = quant.Grayscale(size)
	default:
		palette = quant.MedianCut(raw.Pix, raw.Channels, size)
	}
	indices := quant.Map(raw.Pix, raw.Channels, palette)
	if len(palette) < size {
		palette = append(append([]RGB{}, palette...), make([]RGB, size-len(palette))...)
	}
	return palette, indices
}
