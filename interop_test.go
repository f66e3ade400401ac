package bmp

import (
	"bytes"
	"image"
	"testing"

	xbmp "golang.org/x/image/bmp"
)

// These tests cross-validate the encoder against golang.org/x/image/bmp:
// files produced here must decode identically under the x/image decoder.

func xDecode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := xbmp.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("x/image/bmp decode: %v", err)
	}
	return img
}

func TestInterop_24Bit(t *testing.T) {
	raw := gradient3(7, 5)
	data, err := EncodeRaw(raw, &EncoderOptions{BitsPerPixel: 24})
	if err != nil {
		t.Fatal(err)
	}
	img := xDecode(t, data)
	if img.Bounds().Dx() != 7 || img.Bounds().Dy() != 5 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	for y := 0; y < 5; y++ {
		for x := 0; x < 7; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			i := (y*7 + x) * 3
			if uint8(r>>8) != raw.Pix[i] || uint8(g>>8) != raw.Pix[i+1] || uint8(b>>8) != raw.Pix[i+2] {
				t.Fatalf("pixel (%d,%d) = %d,%d,%d, want %v", x, y, r>>8, g>>8, b>>8, raw.Pix[i:i+3])
			}
		}
	}
}

func TestInterop_24BitTopDown(t *testing.T) {
	raw := gradient3(4, 4)
	data, err := EncodeRaw(raw, &EncoderOptions{BitsPerPixel: 24, TopDown: true})
	if err != nil {
		t.Fatal(err)
	}
	img := xDecode(t, data)
	r, g, b, _ := img.At(1, 2).RGBA()
	i := (2*4 + 1) * 3
	if uint8(r>>8) != raw.Pix[i] || uint8(g>>8) != raw.Pix[i+1] || uint8(b>>8) != raw.Pix[i+2] {
		t.Errorf("pixel (1,2) = %d,%d,%d, want %v", r>>8, g>>8, b>>8, raw.Pix[i:i+3])
	}
}

func TestInterop_32Bit(t *testing.T) {
	raw := gradient4(3, 3)
	data, err := EncodeRaw(raw, &EncoderOptions{BitsPerPixel: 32})
	if err != nil {
		t.Fatal(err)
	}
	img := xDecode(t, data)
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		t.Fatalf("decoded type = %T", img)
	}
	for i := 0; i < 9; i++ {
		x, y := i%3, i/3
		got := nrgba.NRGBAAt(x, y)
		if got.R != raw.Pix[i*4] || got.G != raw.Pix[i*4+1] || got.B != raw.Pix[i*4+2] {
			t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, raw.Pix[i*4:i*4+4])
		}
	}
}

func TestInterop_8BitGray(t *testing.T) {
	raw := gray1(6, 3)
	data, err := EncodeRaw(raw, nil)
	if err != nil {
		t.Fatal(err)
	}
	img := xDecode(t, data)
	for y := 0; y < 3; y++ {
		for x := 0; x < 6; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			want := uint32(raw.Pix[y*6+x])
			if r>>8 != want || g>>8 != want || b>>8 != want {
				t.Fatalf("pixel (%d,%d) = %d/%d/%d, want gray %d", x, y, r>>8, g>>8, b>>8, want)
			}
		}
	}
}

// TestInterop_DecodeTheirs runs the other direction: a file produced by the
// x/image encoder must decode identically here.
func TestInterop_DecodeTheirs(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 5, 4))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i] = byte(i)
		src.Pix[i+1] = byte(i * 3)
		src.Pix[i+2] = byte(i * 7)
		src.Pix[i+3] = 255
	}
	var buf bytes.Buffer
	if err := xbmp.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}
	img, err := Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			wr, wg, wb, _ := src.At(x, y).RGBA()
			gr, gg, gb, _ := img.At(x, y).RGBA()
			if wr != gr || wg != gg || wb != gb {
				t.Fatalf("pixel (%d,%d) differs", x, y)
			}
		}
	}
}
