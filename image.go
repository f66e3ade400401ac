package bmp

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/deepteams/bmp/internal/header"
)

func init() {
	image.RegisterFormat("bmp", "BM????\x00\x00\x00\x00", Decode, DecodeConfig)
}

// readAll reads all data from r. If r implements Len() int (e.g.
// *bytes.Reader), a single exact-sized allocation is used instead of
// the repeated doublings that io.ReadAll performs.
func readAll(r io.Reader) ([]byte, error) {
	if lr, ok := r.(interface{ Len() int }); ok {
		n := lr.Len()
		if n > 0 {
			data := make([]byte, n)
			_, err := io.ReadFull(r, data)
			return data, err
		}
	}
	return io.ReadAll(r)
}

// Decode reads a BMP image from r and returns it as an image.Image.
// Grayscale-paletted files decode to *image.Gray, files with alpha to
// *image.NRGBA, everything else to *image.NRGBA with opaque alpha.
func Decode(r io.Reader) (image.Image, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("bmp: reading data: %w", err)
	}
	raw, err := DecodeRaw(data, nil)
	if err != nil {
		return nil, err
	}
	return rawToImage(raw), nil
}

// DecodeConfig returns the color model and dimensions of a BMP image
// without decoding the entire image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	data, err := readAll(r)
	if err != nil {
		return image.Config{}, fmt.Errorf("bmp: reading data: %w", err)
	}
	hdr, err := header.Parse(data)
	if err != nil {
		return image.Config{}, err
	}
	if err := checkDimensions(hdr); err != nil {
		return image.Config{}, err
	}

	cfg := image.Config{
		Width:  hdr.AbsWidth(),
		Height: hdr.AbsHeight(),
	}
	switch {
	case hdr.BitsPerPixel <= 8:
		pal := header.ReadPalette(data, hdr)
		if pal.Grayscale() {
			cfg.ColorModel = color.GrayModel
		} else {
			cm := make(color.Palette, pal.Supplied)
			for i, e := range pal.Entries[:pal.Supplied] {
				cm[i] = color.NRGBA{R: e.R, G: e.G, B: e.B, A: 255}
			}
			cfg.ColorModel = cm
		}
	default:
		cfg.ColorModel = color.NRGBAModel
	}
	return cfg, nil
}

// Encode writes the image img to w in BMP format.
// If opts is nil, DefaultEncoderOptions() is used.
func Encode(w io.Writer, img image.Image, opts *EncoderOptions) error {
	raw := imageToRaw(img)
	data, err := EncodeRaw(raw, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// rawToImage converts decoded pixels to the matching stdlib image type.
func rawToImage(raw *RawImage) image.Image {
	switch raw.Channels {
	case 1:
		img := image.NewGray(image.Rect(0, 0, raw.Width, raw.Height))
		for y := 0; y < raw.Height; y++ {
			copy(img.Pix[y*img.Stride:], raw.Pix[y*raw.Width:(y+1)*raw.Width])
		}
		return img
	case 3:
		img := image.NewNRGBA(image.Rect(0, 0, raw.Width, raw.Height))
		for y := 0; y < raw.Height; y++ {
			dst := img.Pix[y*img.Stride:]
			src := raw.Pix[y*raw.Width*3:]
			for x := 0; x < raw.Width; x++ {
				dst[x*4] = src[x*3]
				dst[x*4+1] = src[x*3+1]
				dst[x*4+2] = src[x*3+2]
				dst[x*4+3] = 255
			}
		}
		return img
	default:
		img := image.NewNRGBA(image.Rect(0, 0, raw.Width, raw.Height))
		for y := 0; y < raw.Height; y++ {
			copy(img.Pix[y*img.Stride:], raw.Pix[y*raw.Width*4:(y+1)*raw.Width*4])
		}
		return img
	}
}

// imageToRaw imports an image.Image into raw pixel data, with fast paths
// for the common concrete types. Images with any non-opaque pixel import
// as 4 channels, grayscale as 1, everything else as 3.
func imageToRaw(img image.Image) *RawImage {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if gray, ok := img.(*image.Gray); ok {
		raw := &RawImage{Width: w, Height: h, Channels: 1, Pix: make([]byte, w*h)}
		for y := 0; y < h; y++ {
			srcOff := (y+b.Min.Y-gray.Rect.Min.Y)*gray.Stride + (b.Min.X - gray.Rect.Min.X)
			copy(raw.Pix[y*w:(y+1)*w], gray.Pix[srcOff:srcOff+w])
		}
		return raw
	}

	hasAlpha := imageHasAlpha(img)
	channels := 3
	if hasAlpha {
		channels = 4
	}
	raw := &RawImage{Width: w, Height: h, Channels: channels, Pix: make([]byte, w*h*channels)}

	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := 0; y < h; y++ {
			srcOff := (y+b.Min.Y-nrgba.Rect.Min.Y)*nrgba.Stride + (b.Min.X-nrgba.Rect.Min.X)*4
			dstOff := y * w * channels
			for x := 0; x < w; x++ {
				s := srcOff + x*4
				d := dstOff + x*channels
				raw.Pix[d] = nrgba.Pix[s]
				raw.Pix[d+1] = nrgba.Pix[s+1]
				raw.Pix[d+2] = nrgba.Pix[s+2]
				if channels == 4 {
					raw.Pix[d+3] = nrgba.Pix[s+3]
				}
			}
		}
		return raw
	}

	for y := 0; y < h; y++ {
		dstOff := y * w * channels
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			d := dstOff + x*channels
			raw.Pix[d] = c.R
			raw.Pix[d+1] = c.G
			raw.Pix[d+2] = c.B
			if channels == 4 {
				raw.Pix[d+3] = c.A
			}
		}
	}
	return raw
}

// imageHasAlpha reports whether the image has any pixel with alpha < 255.
func imageHasAlpha(img image.Image) bool {
	b := img.Bounds()
	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := (y-nrgba.Rect.Min.Y)*nrgba.Stride + (b.Min.X-nrgba.Rect.Min.X)*4 + 3
			for x := 0; x < b.Dx(); x++ {
				if nrgba.Pix[off] != 255 {
					return true
				}
				off += 4
			}
		}
		return false
	}
	if _, ok := img.(*image.Gray); ok {
		return false
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xFFFF {
				return true
			}
		}
	}
	return false
}
