//go:build !unix

// Package region obtains and releases the raw memory backing a heap arena.
package region

import (
	"fmt"
	"unsafe"
)

// Acquire allocates n zeroed bytes from the Go heap when mmap is not available.
func Acquire(n int) ([]byte, func() error, error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("region: invalid size %d", n)
	}
	// uint64 backing keeps the base 8-byte aligned.
	words := make([]uint64, (n+7)/8)
	data := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), n)
	return data, func() error { return nil }, nil
}

// Mapped reports whether Acquire hands out OS mappings on this platform.
func Mapped() bool { return false }
