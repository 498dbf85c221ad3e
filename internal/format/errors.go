package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a header.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrBadMagic indicates a header did not carry BlockMagic.
	ErrBadMagic = errors.New("format: block magic mismatch")
	// ErrMisaligned indicates an offset or size off the 8-byte grid.
	ErrMisaligned = errors.New("format: misaligned offset")
)
