package arena

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/region"
)

// HeaderSize is the number of bytes preceding every block's usable region.
const HeaderSize = format.HeaderSize

// Ref is the offset of a block's usable region from the arena base.
type Ref uint64

// NilRef is the "no allocation" sentinel.
const NilRef Ref = 0

// acquire is swapped by tests to simulate the OS refusing the region.
var acquire = region.Acquire

// Arena is one contiguous region tiled by blocks.
type Arena struct {
	data     []byte
	release  func() error
	capacity int
}

// New obtains capacity bytes and carves them into a single free block.
// capacity must be a multiple of 8 and at least format.MinArenaSize.
func New(capacity int) (*Arena, error) {
	if capacity < format.MinArenaSize || !format.IsAligned8(capacity) {
		return nil, fmt.Errorf("%w: %w (%d bytes)", ErrArenaInit, ErrBadCapacity, capacity)
	}

	data, release, err := acquire(capacity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArenaInit, err)
	}

	a := &Arena{
		data:     data,
		release:  release,
		capacity: capacity,
	}
	format.EncodeHeader(data, 0, format.Header{Size: capacity - HeaderSize})
	return a, nil
}

// Close releases the region. Closing a closed arena is a no-op.
func (a *Arena) Close() error {
	if a == nil || a.data == nil {
		return nil
	}
	err := a.release()
	a.data = nil
	a.release = nil
	return err
}

// Closed reports whether Close has been called.
func (a *Arena) Closed() bool { return a == nil || a.data == nil }

// Capacity returns the total arena size in bytes, headers included.
func (a *Arena) Capacity() int { return a.capacity }

// Bytes exposes the whole region. Nil after Close.
func (a *Arena) Bytes() []byte { return a.data }

// Base returns the address of the first arena byte, or 0 after Close.
func (a *Arena) Base() uintptr {
	if a.Closed() {
		return 0
	}
	return uintptr(unsafe.Pointer(&a.data[0]))
}

// HeaderOf recovers the header offset of the block whose usable region starts at ref.
func HeaderOf(ref Ref) int { return int(ref) - HeaderSize }

// RefOf returns the usable-region ref for the header at off.
func RefOf(off int) Ref { return Ref(off + HeaderSize) }

// ReadHeader decodes the header at off and checks that the block lies inside the arena.
func (a *Arena) ReadHeader(off int) (format.Header, error) {
	if a.Closed() {
		return format.Header{}, ErrClosed
	}
	if off < 0 || off+HeaderSize > a.capacity {
		return format.Header{}, fmt.Errorf("%w: header at %d (capacity %d)", ErrOutOfRange, off, a.capacity)
	}
	h, err := format.DecodeHeader(a.data, off)
	if err != nil {
		return format.Header{}, err
	}
	if off+h.Span() > a.capacity {
		return format.Header{}, fmt.Errorf("%w: block at %d spans %d bytes (capacity %d)",
			ErrOutOfRange, off, h.Span(), a.capacity)
	}
	return h, nil
}

// WriteHeader stores h at off. The caller guarantees off is a block boundary.
func (a *Arena) WriteHeader(off int, h format.Header) {
	format.EncodeHeader(a.data, off, h)
}

// ClearHeader wipes the header at off so a stale ref into a merged block no
// longer decodes as a block.
func (a *Arena) ClearHeader(off int) {
	clear(a.data[off : off+HeaderSize])
}

// Payload returns the usable bytes of the block at off. The slice capacity is
// clipped to size so appends cannot spill into the next header.
func (a *Arena) Payload(off, size int) []byte {
	start := off + HeaderSize
	return a.data[start : start+size : start+size]
}

// Next returns the header offset following the block at off with header h.
// The result equals Capacity() for the last block.
func Next(off int, h format.Header) int { return off + h.Span() }
