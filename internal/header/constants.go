// Package header reads and writes BMP file headers: the 14-byte file
// header, every supported DIB header variant (CORE, OS/2 2.x, INFO, V4, V5),
// the optional bitfield mask block, and the color table.
package header

import "encoding/binary"

// Signature is the little-endian "BM" magic at the start of every BMP file.
const Signature = 0x4D42

// FileHeaderSize is the size of the BITMAPFILEHEADER structure.
const FileHeaderSize = 14

// DIB header sizes.
const (
	SizeCore = 12  // BITMAPCOREHEADER
	SizeOS2  = 16  // OS22XBITMAPHEADER, short form
	SizeInfo = 40  // BITMAPINFOHEADER
	SizeV2   = 52  // BITMAPV2INFOHEADER (undocumented, carries RGB masks)
	SizeV3   = 56  // BITMAPV3INFOHEADER (undocumented, adds alpha mask)
	SizeOS2b = 64  // OS22XBITMAPHEADER, full form
	SizeV4   = 108 // BITMAPV4HEADER
	SizeV5   = 124 // BITMAPV5HEADER
)

// Compression identifies the storage scheme of the pixel area. Two values
// are overloaded: BiBitfields means Modified Huffman when BitsPerPixel is 1
// (OS/2), and BiJPEG means RLE24 when BitsPerPixel is 24 (OS/2).
type Compression uint32

// BMP compression identifiers.
const (
	BiRGB            Compression = 0
	BiRLE8           Compression = 1
	BiRLE4           Compression = 2
	BiBitfields      Compression = 3
	BiJPEG           Compression = 4
	BiPNG            Compression = 5
	BiAlphaBitfields Compression = 6
)

// CSTypeSRGB is the LogicalColorSpace tag 'sRGB' stored in V4/V5 headers.
const CSTypeSRGB = 0x73524742

// IntentGraphics is the LCS_GM_GRAPHICS rendering intent written to V5 headers.
const IntentGraphics = 2

// ppmDefault is the X/Y resolution written by the encoder (72 DPI in
// pixels per meter).
const ppmDefault = 2835

// ReadLE16 reads a little-endian uint16 from data.
func ReadLE16(data []byte) uint16 {
	return binary.LittleEndian.Uint16(data)
}

// ReadLE32 reads a little-endian uint32 from data.
func ReadLE32(data []byte) uint32 {
	return binary.LittleEndian.Uint32(data)
}

// PutLE16 writes a little-endian uint16 to data.
func PutLE16(data []byte, v uint16) {
	binary.LittleEndian.PutUint16(data, v)
}

// PutLE32 writes a little-endian uint32 to data.
func PutLE32(data []byte, v uint32) {
	binary.LittleEndian.PutUint32(data, v)
}
