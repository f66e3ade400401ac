package bmp

import (
	"bytes"
	"errors"
	"testing"
)

// gradient3 builds a 3-channel test image whose channel values all survive
// 5-bit quantization exactly, so RGB555/RGB565 round trips stay within the
// lossy tolerance.
func gradient3(w, h int) *RawImage {
	levels := []byte{0, 66, 132, 189, 255}
	raw := &RawImage{Width: w, Height: h, Channels: 3, Pix: make([]byte, w*h*3)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			raw.Pix[i] = levels[(x+y)%len(levels)]
			raw.Pix[i+1] = levels[x%len(levels)]
			raw.Pix[i+2] = levels[y%len(levels)]
		}
	}
	return raw
}

func gradient4(w, h int) *RawImage {
	base := gradient3(w, h)
	raw := &RawImage{Width: w, Height: h, Channels: 4, Pix: make([]byte, w*h*4)}
	for i := 0; i < w*h; i++ {
		copy(raw.Pix[i*4:], base.Pix[i*3:i*3+3])
		raw.Pix[i*4+3] = byte(255 - i%7)
	}
	return raw
}

func gray1(w, h int) *RawImage {
	raw := &RawImage{Width: w, Height: h, Channels: 1, Pix: make([]byte, w*h)}
	for i := range raw.Pix {
		raw.Pix[i] = byte(i * 255 / (len(raw.Pix) - 1))
	}
	return raw
}

func roundTrip(t *testing.T, raw *RawImage, opts *EncoderOptions, dopts *DecodeOptions) *RawImage {
	t.Helper()
	data, err := EncodeRaw(raw, opts)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeRaw(data, dopts)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Width != raw.Width || got.Height != raw.Height {
		t.Fatalf("size = %dx%d, want %dx%d", got.Width, got.Height, raw.Width, raw.Height)
	}
	return got
}

func expectExact(t *testing.T, raw, got *RawImage) {
	t.Helper()
	if got.Channels != raw.Channels {
		t.Fatalf("channels = %d, want %d", got.Channels, raw.Channels)
	}
	if !bytes.Equal(got.Pix, raw.Pix) {
		t.Errorf("pixels differ\ngot  %v\nwant %v", got.Pix, raw.Pix)
	}
}

func expectWithin(t *testing.T, raw, got *RawImage, tol int) {
	t.Helper()
	if got.Channels != raw.Channels {
		t.Fatalf("channels = %d, want %d", got.Channels, raw.Channels)
	}
	for i := range raw.Pix {
		d := int(raw.Pix[i]) - int(got.Pix[i])
		if d < -tol || d > tol {
			t.Fatalf("pixel byte %d = %d, want %d ± %d", i, got.Pix[i], raw.Pix[i], tol)
		}
	}
}

func TestEncodeRaw_RoundTrip24(t *testing.T) {
	raw := gradient3(5, 4)
	expectExact(t, raw, roundTrip(t, raw, &EncoderOptions{BitsPerPixel: 24}, nil))
}

func TestEncodeRaw_RoundTrip32(t *testing.T) {
	raw := gradient4(3, 3)
	expectExact(t, raw, roundTrip(t, raw, &EncoderOptions{BitsPerPixel: 32}, nil))
}

func TestEncodeRaw_RoundTripAlphaBitfields(t *testing.T) {
	raw := gradient4(4, 2)
	opts := &EncoderOptions{BitsPerPixel: 32, Compression: BiAlphaBitfields}
	expectExact(t, raw, roundTrip(t, raw, opts, nil))
}

func TestEncodeRaw_RoundTripBitfields32Default(t *testing.T) {
	// The INFO mask block of plain BITFIELDS has no alpha slot, so the
	// decode side sees 3 channels; the RGB payload survives exactly.
	raw := gradient3(4, 2)
	opts := &EncoderOptions{BitsPerPixel: 32, Compression: BiBitfields}
	expectExact(t, raw, roundTrip(t, raw, opts, nil))
}

func TestEncodeRaw_RoundTripGray8(t *testing.T) {
	raw := gray1(8, 4)
	expectExact(t, raw, roundTrip(t, raw, nil, nil))
}

func TestEncodeRaw_RoundTrip555(t *testing.T) {
	raw := gradient3(6, 3)
	got := roundTrip(t, raw, &EncoderOptions{BitsPerPixel: 16}, nil)
	expectWithin(t, raw, got, 2)
}

func TestEncodeRaw_RoundTrip565(t *testing.T) {
	raw := gradient3(6, 3)
	opts := &EncoderOptions{BitsPerPixel: 16, Compression: BiBitfields}
	got := roundTrip(t, raw, opts, nil)
	expectWithin(t, raw, got, 2)
}

func TestEncodeRaw_RoundTripPalette8(t *testing.T) {
	palette := []RGB{{R: 10, G: 20, B: 30}, {R: 200}, {G: 150}, {B: 90}}
	raw := &RawImage{Width: 4, Height: 2, Channels: 3, Pix: make([]byte, 24)}
	for i := 0; i < 8; i++ {
		e := palette[i%4]
		raw.Pix[i*3], raw.Pix[i*3+1], raw.Pix[i*3+2] = e.R, e.G, e.B
	}
	opts := &EncoderOptions{BitsPerPixel: 8, Palette: palette}
	expectExact(t, raw, roundTrip(t, raw, opts, nil))
}

func TestEncodeRaw_RoundTripQuantized4(t *testing.T) {
	// At most 16 distinct colors: Median Cut keeps them verbatim, so the
	// indexed round trip is exact.
	colors := []RGB{
		{R: 255}, {G: 255}, {B: 255}, {R: 255, G: 255},
		{R: 128, G: 64, B: 32}, {}, {R: 255, G: 255, B: 255}, {R: 1, G: 2, B: 3},
	}
	raw := &RawImage{Width: 8, Height: 3, Channels: 3, Pix: make([]byte, 8*3*3)}
	for i := 0; i < 24; i++ {
		e := colors[i%len(colors)]
		raw.Pix[i*3], raw.Pix[i*3+1], raw.Pix[i*3+2] = e.R, e.G, e.B
	}
	got := roundTrip(t, raw, &EncoderOptions{BitsPerPixel: 4}, nil)
	expectExact(t, raw, got)
}

func TestEncodeRaw_RoundTripRLE8(t *testing.T) {
	raw := &RawImage{Width: 9, Height: 3, Channels: 1, Pix: []byte{
		0, 0, 0, 0, 0, 7, 7, 7, 9,
		1, 2, 3, 4, 5, 6, 7, 8, 9,
		200, 200, 200, 200, 200, 200, 200, 200, 200,
	}}
	opts := &EncoderOptions{Compression: BiRLE8}
	got := roundTrip(t, raw, opts, nil)
	// RLE output is always 3-channel.
	want := convertChannels(raw, 3)
	expectExact(t, want, got)
}

func TestEncodeRaw_RoundTripRLE4(t *testing.T) {
	palette := make([]RGB, 16)
	for i := range palette {
		palette[i] = RGB{R: uint8(i * 17), G: uint8(i * 17), B: uint8(i * 17)}
	}
	raw := &RawImage{Width: 6, Height: 2, Channels: 3, Pix: make([]byte, 36)}
	idx := []byte{0, 0, 0, 5, 9, 15, 15, 15, 15, 1, 2, 3}
	for i, ix := range idx {
		e := palette[ix]
		raw.Pix[i*3], raw.Pix[i*3+1], raw.Pix[i*3+2] = e.R, e.G, e.B
	}
	opts := &EncoderOptions{BitsPerPixel: 4, Compression: BiRLE4, Palette: palette}
	got := roundTrip(t, raw, opts, nil)
	expectExact(t, raw, got)
}

func TestEncodeRaw_RoundTrip1Bit(t *testing.T) {
	raw := &RawImage{Width: 10, Height: 2, Channels: 1, Pix: []byte{
		255, 0, 255, 0, 255, 0, 255, 0, 255, 0,
		0, 0, 0, 0, 0, 255, 255, 255, 255, 255,
	}}
	got := roundTrip(t, raw, &EncoderOptions{BitsPerPixel: 1}, nil)
	expectExact(t, raw, got)
}

func TestEncodeRaw_TopDownRoundTrip(t *testing.T) {
	raw := gradient3(4, 2)
	down, err := EncodeRaw(raw, &EncoderOptions{TopDown: true})
	if err != nil {
		t.Fatal(err)
	}
	up, err := EncodeRaw(raw, &EncoderOptions{TopDown: false})
	if err != nil {
		t.Fatal(err)
	}

	// The top-down file stores rows in raster order; the bottom-up file
	// reverses them. Decodes agree regardless.
	fd, err := GetFeatures(down)
	if err != nil {
		t.Fatal(err)
	}
	if !fd.TopDown {
		t.Error("top-down flag not set")
	}
	stride := 4 * 3
	topRowDown := down[54 : 54+stride]
	lastRowUp := up[54+stride : 54+2*stride]
	if !bytes.Equal(topRowDown, lastRowUp) {
		t.Error("row storage order does not mirror between the two files")
	}

	a, err := DecodeRaw(down, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := DecodeRaw(up, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Pix, b.Pix) || !bytes.Equal(a.Pix, raw.Pix) {
		t.Error("top-down and bottom-up decodes disagree with the source")
	}
}

func TestEncodeRaw_DefaultBitDepths(t *testing.T) {
	tests := []struct {
		channels int
		wantBpp  int
	}{
		{1, 8},
		{3, 24},
		{4, 32},
	}
	for _, tt := range tests {
		raw := &RawImage{Width: 2, Height: 2, Channels: tt.channels, Pix: make([]byte, 4*tt.channels)}
		if tt.channels == 4 {
			for i := 3; i < len(raw.Pix); i += 4 {
				raw.Pix[i] = 255
			}
		}
		data, err := EncodeRaw(raw, nil)
		if err != nil {
			t.Fatal(err)
		}
		f, err := GetFeatures(data)
		if err != nil {
			t.Fatal(err)
		}
		if f.BitsPerPixel != tt.wantBpp {
			t.Errorf("%d channels: bpp = %d, want %d", tt.channels, f.BitsPerPixel, tt.wantBpp)
		}
	}
}

func TestEncodeRaw_HeaderTypes(t *testing.T) {
	raw := gradient3(2, 2)
	for _, ht := range []struct {
		t    HeaderType
		size int
	}{
		{HeaderInfo, 40},
		{HeaderV4, 108},
		{HeaderV5, 124},
	} {
		data, err := EncodeRaw(raw, &EncoderOptions{HeaderType: ht.t})
		if err != nil {
			t.Fatal(err)
		}
		f, err := GetFeatures(data)
		if err != nil {
			t.Fatal(err)
		}
		if f.HeaderSize != ht.size {
			t.Errorf("header type %d: size = %d, want %d", ht.t, f.HeaderSize, ht.size)
		}
		got, err := DecodeRaw(data, nil)
		if err != nil {
			t.Fatal(err)
		}
		expectExact(t, raw, got)
	}
}

func TestEncodeRaw_OptionConflicts(t *testing.T) {
	raw3 := gradient3(2, 2)
	tests := []struct {
		name string
		opts *EncoderOptions
	}{
		{"rle8 wrong bpp", &EncoderOptions{Compression: BiRLE8, BitsPerPixel: 4}},
		{"rle4 wrong bpp", &EncoderOptions{Compression: BiRLE4, BitsPerPixel: 8}},
		{"bitfields 24bpp", &EncoderOptions{Compression: BiBitfields, BitsPerPixel: 24}},
		{"alphabitfields 16bpp", &EncoderOptions{Compression: BiAlphaBitfields, BitsPerPixel: 16}},
		{"rle top-down", &EncoderOptions{Compression: BiRLE8, BitsPerPixel: 8, TopDown: true}},
		{"bad bpp", &EncoderOptions{BitsPerPixel: 2}},
		{"jpeg compression", &EncoderOptions{Compression: BiJPEG}},
		{"zero mask", &EncoderOptions{Compression: BiBitfields, BitsPerPixel: 16,
			Bitfields: &Bitfields{GreenMask: 0x07E0, BlueMask: 0x001F}}},
		{"overlapping masks", &EncoderOptions{Compression: BiBitfields, BitsPerPixel: 16,
			Bitfields: &Bitfields{RedMask: 0xF800, GreenMask: 0xFC00, BlueMask: 0x001F}}},
		{"non-contiguous mask", &EncoderOptions{Compression: BiBitfields, BitsPerPixel: 16,
			Bitfields: &Bitfields{RedMask: 0xA000, GreenMask: 0x07E0, BlueMask: 0x001F}}},
		{"masks exceed bpp", &EncoderOptions{Compression: BiBitfields, BitsPerPixel: 16,
			Bitfields: &Bitfields{RedMask: 0xF8000, GreenMask: 0x07E0, BlueMask: 0x001F}}},
		{"oversized palette", &EncoderOptions{BitsPerPixel: 4, Palette: make([]RGB, 17)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EncodeRaw(raw3, tt.opts); !errors.Is(err, ErrOptionConflict) {
				t.Errorf("error = %v, want ErrOptionConflict", err)
			}
		})
	}
}

func TestEncodeRaw_InvalidRaw(t *testing.T) {
	tests := []struct {
		name string
		raw  *RawImage
	}{
		{"nil", nil},
		{"zero width", &RawImage{Width: 0, Height: 1, Channels: 3}},
		{"bad channels", &RawImage{Width: 1, Height: 1, Channels: 2, Pix: make([]byte, 2)}},
		{"short pix", &RawImage{Width: 2, Height: 2, Channels: 3, Pix: make([]byte, 11)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EncodeRaw(tt.raw, nil); !errors.Is(err, ErrInvalidDimensions) {
				t.Errorf("error = %v, want ErrInvalidDimensions", err)
			}
		})
	}
}

func TestEncodeRaw_GrayToColorBitDepths(t *testing.T) {
	// Grayscale input encoded at direct-color depths expands channels.
	raw := gray1(4, 4)
	got := roundTrip(t, raw, &EncoderOptions{BitsPerPixel: 24}, nil)
	want := convertChannels(raw, 3)
	expectExact(t, want, got)
}

func TestEncodeRaw_PixInvariant(t *testing.T) {
	// Decoded buffers always hold exactly width*height*channels bytes.
	for _, opts := range []*EncoderOptions{
		nil,
		{BitsPerPixel: 16},
		{BitsPerPixel: 8},
		{BitsPerPixel: 4},
		{Compression: BiRLE8, BitsPerPixel: 8},
	} {
		raw := gradient3(7, 5) // odd width exercises row padding
		got := roundTrip(t, raw, opts, nil)
		if len(got.Pix) != got.Width*got.Height*got.Channels {
			t.Fatalf("len(Pix) = %d, want %d", len(got.Pix), got.Width*got.Height*got.Channels)
		}
	}
}
