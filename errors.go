package bmp

import (
	"errors"
	"fmt"

	"github.com/deepteams/bmp/internal/header"
)

// Errors returned by the decoder and encoder.
var (
	ErrInvalidSignature       = header.ErrInvalidSignature
	ErrUnsupportedHeader      = header.ErrUnsupportedHeader
	ErrTruncated              = header.ErrTruncated
	ErrUnsupportedBitDepth    = errors.New("bmp: unsupported bit depth")
	ErrUnsupportedCompression = errors.New("bmp: unsupported compression")
	ErrEmbeddedCodec          = errors.New("bmp: embedded codec payload")
	ErrOptionConflict         = errors.New("bmp: conflicting encoder options")
	ErrInvalidDimensions      = errors.New("bmp: invalid image dimensions")
)

// EmbeddedCodecError reports a BI_JPEG or BI_PNG file whose pixel area is a
// complete compressed stream in another format. The caller retrieves the
// payload with ExtractEmbedded. It unwraps to ErrEmbeddedCodec.
type EmbeddedCodecError struct {
	Codec string // "jpeg" or "png"
}

func (e *EmbeddedCodecError) Error() string {
	return fmt.Sprintf("bmp: embedded %s payload, use ExtractEmbedded", e.Codec)
}

func (e *EmbeddedCodecError) Unwrap() error { return ErrEmbeddedCodec }
