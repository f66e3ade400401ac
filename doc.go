// Package bmp provides a pure Go decoder and encoder for the Windows and
// OS/2 BMP (Device-Independent Bitmap) image format.
//
// BMP is a family of formats: eight DIB header versions combined with
// uncompressed packed pixels, palette indirection, custom channel masks,
// two RLE schemes, an OS/2 RLE24 variant, and CCITT Modified Huffman
// coding. This package implements all of them without CGo dependencies.
//
// The package supports:
//   - All DIB header sizes (12, 16, 40, 52, 56, 64, 108, 124)
//   - 1/2/4/8-bit indexed, 16-bit RGB555, 24-bit, 32-bit and 64-bit pixels
//   - BITFIELDS and ALPHABITFIELDS channel masks
//   - RLE4, RLE8 and RLE24 decoding; RLE4/RLE8 encoding
//   - 1-bit CCITT Group 3 Modified Huffman decoding
//   - Median Cut color quantization for indexed output
//   - Extraction of embedded JPEG/PNG payloads
//
// Basic usage for decoding:
//
//	img, err := bmp.Decode(reader)
//
// Basic usage for encoding:
//
//	err := bmp.Encode(writer, img, &bmp.EncoderOptions{BitsPerPixel: 24})
//
// The byte-level API (DecodeRaw, EncodeRaw) works on raw pixel buffers
// instead of image.Image values and exposes every format option.
package bmp
