//go:build unix

// Package region obtains and releases the raw memory backing a heap arena.
package region

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Acquire maps n bytes of anonymous, zero-filled, private memory.
// The returned release func unmaps the region; calling it twice is a no-op.
func Acquire(n int) ([]byte, func() error, error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("region: invalid size %d", n)
	}
	data, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("region: mmap %d bytes: %w", n, err)
	}
	released := false
	release := func() error {
		if released {
			return nil
		}
		released = true
		err := unix.Munmap(data)
		if errors.Is(err, unix.EINVAL) {
			// Already unmapped by someone else.
			return nil
		}
		return err
	}
	return data, release, nil
}

// Mapped reports whether Acquire hands out OS mappings on this platform.
func Mapped() bool { return true }
