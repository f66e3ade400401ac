package bmp

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func TestImageRoundTrip_NRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 60), G: uint8(y * 80), B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := Encode(&buf, src, nil); err != nil {
		t.Fatal(err)
	}
	img, err := Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v, want %v", img.Bounds(), src.Bounds())
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			want := src.NRGBAAt(x, y)
			r, g, b, a := img.At(x, y).RGBA()
			got := color.NRGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
			if got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestImageRoundTrip_Alpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 128})
	src.SetNRGBA(1, 0, color.NRGBA{R: 40, G: 50, B: 60, A: 255})
	src.SetNRGBA(0, 1, color.NRGBA{R: 70, G: 80, B: 90, A: 1})
	src.SetNRGBA(1, 1, color.NRGBA{A: 255})

	var buf bytes.Buffer
	if err := Encode(&buf, src, nil); err != nil {
		t.Fatal(err)
	}
	img, err := Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		t.Fatalf("decoded type = %T, want *image.NRGBA", img)
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if got, want := nrgba.NRGBAAt(x, y), src.NRGBAAt(x, y); got != want {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestImageRoundTrip_Gray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 5, 2))
	for i := range src.Pix {
		src.Pix[i] = byte(i * 25)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, src, nil); err != nil {
		t.Fatal(err)
	}
	img, err := Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("decoded type = %T, want *image.Gray", img)
	}
	if !bytes.Equal(gray.Pix, src.Pix) {
		t.Errorf("pixels = %v, want %v", gray.Pix, src.Pix)
	}
}

func TestDecodeConfig(t *testing.T) {
	raw := gradient3(6, 4)
	data, err := EncodeRaw(raw, nil)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 6 || cfg.Height != 4 {
		t.Errorf("config = %dx%d, want 6x4", cfg.Width, cfg.Height)
	}
	if cfg.ColorModel != color.NRGBAModel {
		t.Errorf("color model = %v, want NRGBAModel", cfg.ColorModel)
	}
}

func TestDecodeConfig_Paletted(t *testing.T) {
	palette := []RGB{{R: 255}, {G: 255}, {B: 255}, {R: 1, G: 2, B: 3}}
	raw := &RawImage{Width: 2, Height: 2, Channels: 3, Pix: make([]byte, 12)}
	data, err := EncodeRaw(raw, &EncoderOptions{BitsPerPixel: 8, Palette: palette})
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	pal, ok := cfg.ColorModel.(color.Palette)
	if !ok {
		t.Fatalf("color model = %T, want color.Palette", cfg.ColorModel)
	}
	if len(pal) != 256 {
		t.Errorf("palette length = %d, want 256", len(pal))
	}
	if pal[0] != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("palette[0] = %v", pal[0])
	}
}

func TestImageRegisteredFormat(t *testing.T) {
	raw := gradient3(3, 3)
	data, err := EncodeRaw(raw, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if format != "bmp" {
		t.Errorf("format = %q, want bmp", format)
	}
}
