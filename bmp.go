package bmp

import (
	"fmt"

	"github.com/deepteams/bmp/internal/header"
	"github.com/deepteams/bmp/internal/huffman"
	"github.com/deepteams/bmp/internal/rle"
)

// Compression identifies a BMP storage scheme.
type Compression = header.Compression

// BMP compression identifiers. BiBitfields doubles as Modified Huffman for
// 1-bpp OS/2 images, and BiJPEG doubles as RLE24 for 24-bpp OS/2 images.
const (
	BiRGB            = header.BiRGB
	BiRLE8           = header.BiRLE8
	BiRLE4           = header.BiRLE4
	BiBitfields      = header.BiBitfields
	BiJPEG           = header.BiJPEG
	BiPNG            = header.BiPNG
	BiAlphaBitfields = header.BiAlphaBitfields
)

// HeaderType selects the DIB header version the encoder writes.
type HeaderType uint32

const (
	HeaderInfo HeaderType = header.SizeInfo // BITMAPINFOHEADER, 40 bytes
	HeaderV4   HeaderType = header.SizeV4   // BITMAPV4HEADER, 108 bytes
	HeaderV5   HeaderType = header.SizeV5   // BITMAPV5HEADER, 124 bytes
)

// RGB is one palette entry.
type RGB = header.RGB

// MaxImageArea bounds width*height for decoded images.
const MaxImageArea = uint64(1) << 32

// RawImage is decoded pixel data. Rows are stored top to bottom regardless
// of how the file ordered them. Channels is 1 (grayscale), 3 (RGB) or
// 4 (RGBA), and Pix holds Width*Height*Channels bytes.
type RawImage struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// DecodeOptions adjusts the shape of decoded pixel data.
type DecodeOptions struct {
	// DesiredChannels forces the channel count of the output: 3 or 4.
	// Zero keeps the natural shape (grayscale palettes decode to 1
	// channel, files without alpha to 3, files with alpha to 4).
	DesiredChannels int

	// KeepEmptyAlpha keeps the alpha channel of 32-bit uncompressed
	// images even when every stored alpha byte is zero; the channel is
	// then forced to opaque. By default such files decode to 3 channels,
	// since the fourth byte is officially reserved.
	KeepEmptyAlpha bool
}

// Features describes a BMP file's properties, as returned by [GetFeatures].
// It is derived from the headers alone, without decoding pixel data.
type Features struct {
	Width        int
	Height       int
	TopDown      bool
	BitsPerPixel int
	Compression  Compression
	HeaderSize   int
	PaletteSize  int  // supplied palette entries, 0 for direct-color files
	HasAlphaMask bool // an alpha channel mask is present and non-zero
}

// Embedded is a JPEG or PNG payload carried inside a BMP container, as
// returned by [ExtractEmbedded].
type Embedded struct {
	Width       int
	Height      int
	Compression Compression
	Data        []byte
}

// DecodeRaw decodes a complete BMP file from data into raw pixels.
// A nil opts behaves like the zero value.
func DecodeRaw(data []byte, opts *DecodeOptions) (*RawImage, error) {
	if opts == nil {
		opts = &DecodeOptions{}
	}
	if opts.DesiredChannels != 0 && opts.DesiredChannels != 3 && opts.DesiredChannels != 4 {
		return nil, fmt.Errorf("%w: desired channels %d", ErrOptionConflict, opts.DesiredChannels)
	}

	hdr, err := header.Parse(data)
	if err != nil {
		return nil, err
	}
	if err := checkDimensions(hdr); err != nil {
		return nil, err
	}

	var raw *RawImage
	switch {
	case hdr.Compression == BiRGB:
		raw, err = decodeRGB(data, hdr, opts)
	case hdr.Compression == BiRLE8 || hdr.Compression == BiRLE4,
		hdr.Compression == BiJPEG && hdr.BitsPerPixel == 24:
		raw, err = decodeRLE(data, hdr)
	case hdr.Compression == BiBitfields && hdr.BitsPerPixel == 1:
		raw, err = decodeHuffman(data, hdr)
	case hdr.Compression == BiBitfields || hdr.Compression == BiAlphaBitfields:
		raw, err = decodeBitfields(data, hdr, opts)
	case hdr.Compression == BiJPEG:
		return nil, &EmbeddedCodecError{Codec: "jpeg"}
	case hdr.Compression == BiPNG:
		return nil, &EmbeddedCodecError{Codec: "png"}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCompression, hdr.Compression)
	}
	if err != nil {
		return nil, err
	}
	return convertChannels(raw, opts.DesiredChannels), nil
}

// GetFeatures reads a BMP file's dimensions, bit depth, compression and
// palette shape from the headers, without decoding pixel data.
func GetFeatures(data []byte) (*Features, error) {
	hdr, err := header.Parse(data)
	if err != nil {
		return nil, err
	}
	f := &Features{
		Width:        hdr.AbsWidth(),
		Height:       hdr.AbsHeight(),
		TopDown:      hdr.TopDown(),
		BitsPerPixel: int(hdr.BitsPerPixel),
		Compression:  hdr.Compression,
		HeaderSize:   int(hdr.Size),
		HasAlphaMask: hdr.AlphaMask != 0,
	}
	if hdr.BitsPerPixel >= 1 && hdr.BitsPerPixel <= 8 {
		f.PaletteSize = header.ReadPalette(data, hdr).Supplied
	}
	return f, nil
}

// ExtractEmbedded returns the opaque compressed payload of a BI_JPEG or
// BI_PNG file: the ImageSize bytes starting at the pixel data offset.
// Note that a 24-bpp header claiming BI_JPEG is decoded as RLE24 by
// DecodeRaw; ExtractEmbedded does not second-guess the caller and returns
// the payload for any compression value.
func ExtractEmbedded(data []byte) (*Embedded, error) {
	hdr, err := header.Parse(data)
	if err != nil {
		return nil, err
	}
	start := int(hdr.DataOffset)
	if start > len(data) {
		start = len(data)
	}
	end := start + int(hdr.ImageSize)
	if end > len(data) || hdr.ImageSize == 0 {
		end = len(data)
	}
	return &Embedded{
		Width:       hdr.AbsWidth(),
		Height:      hdr.AbsHeight(),
		Compression: hdr.Compression,
		Data:        data[start:end],
	}, nil
}

func checkDimensions(hdr *header.Header) error {
	if hdr.Width <= 0 || hdr.Height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, hdr.Width, hdr.Height)
	}
	if uint64(hdr.AbsWidth())*uint64(hdr.AbsHeight()) >= MaxImageArea {
		return fmt.Errorf("%w: %dx%d exceeds maximum area", ErrInvalidDimensions, hdr.Width, hdr.Height)
	}
	return nil
}

// pixelArea returns the compressed or packed pixel bytes, clamped to the
// input buffer. A DataOffset past the end yields an empty slice; truncated
// pixel data is handled downstream as zero bytes.
func pixelArea(data []byte, hdr *header.Header) []byte {
	off := int(hdr.DataOffset)
	if off < 0 || off > len(data) {
		return nil
	}
	return data[off:]
}

// decodeRLE handles BI_RLE8, BI_RLE4 and the OS/2 RLE24 scheme. RLE output
// is always 3-channel: the escape-coded formats carry no alpha.
func decodeRLE(data []byte, hdr *header.Header) (*RawImage, error) {
	var format rle.Format
	switch {
	case hdr.Compression == BiRLE8 && hdr.BitsPerPixel == 8:
		format = rle.RLE8
	case hdr.Compression == BiRLE4 && hdr.BitsPerPixel == 4:
		format = rle.RLE4
	case hdr.Compression == BiJPEG && hdr.BitsPerPixel == 24:
		format = rle.RLE24
	default:
		return nil, fmt.Errorf("%w: %d bpp with RLE compression %d",
			ErrUnsupportedBitDepth, hdr.BitsPerPixel, hdr.Compression)
	}

	var pal *header.Palette
	if format != rle.RLE24 {
		pal = header.ReadPalette(data, hdr)
	}
	w, h := hdr.AbsWidth(), hdr.AbsHeight()
	pix := rle.Decode(pixelArea(data, hdr), w, h, hdr.TopDown(), format, pal)
	return &RawImage{Width: w, Height: h, Channels: 3, Pix: pix}, nil
}

// decodeHuffman handles the OS/2 overload of compression 3 at 1 bpp:
// CCITT Group 3 1D Modified Huffman coding of white/black runs.
func decodeHuffman(data []byte, hdr *header.Header) (*RawImage, error) {
	w, h := hdr.AbsWidth(), hdr.AbsHeight()
	pal := header.ReadPalette(data, hdr)
	indices := huffman.Decode(pixelArea(data, hdr), w, h)

	// Stream rows are in file order; map them to top-down output like any
	// other pixel area.
	raw := newIndexedImage(w, h, pal)
	for y := 0; y < h; y++ {
		src := y
		if !hdr.TopDown() {
			src = h - 1 - y
		}
		row := indices[src*w : (src+1)*w]
		writeIndexedRow(raw, pal, y, row)
	}
	return raw, nil
}

// convertChannels reshapes raw to the desired channel count (3 or 4).
// Dropped alpha is discarded; synthesized alpha is opaque.
func convertChannels(raw *RawImage, desired int) *RawImage {
	if desired == 0 || desired == raw.Channels {
		return raw
	}
	n := raw.Width * raw.Height
	out := make([]byte, n*desired)
	for i := 0; i < n; i++ {
		var r, g, b, a byte
		switch raw.Channels {
		case 1:
			v := raw.Pix[i]
			r, g, b, a = v, v, v, 255
		case 3:
			r, g, b, a = raw.Pix[i*3], raw.Pix[i*3+1], raw.Pix[i*3+2], 255
		case 4:
			r, g, b, a = raw.Pix[i*4], raw.Pix[i*4+1], raw.Pix[i*4+2], raw.Pix[i*4+3]
		}
		if desired == 3 {
			out[i*3], out[i*3+1], out[i*3+2] = r, g, b
		} else {
			out[i*4], out[i*4+1], out[i*4+2], out[i*4+3] = r, g, b, a
		}
	}
	return &RawImage{Width: raw.Width, Height: raw.Height, Channels: desired, Pix: out}
}
