package alloc

import (
	"errors"

	"github.com/joshuapare/heapkit/arena"
)

var (
	// ErrNoSpace indicates that no free block large enough was found.
	ErrNoSpace = errors.New("alloc: no free block large enough")

	// ErrBadSize indicates a negative request size.
	ErrBadSize = errors.New("alloc: size must not be negative")

	// ErrBadRef indicates a ref that does not point at a live block of this arena.
	ErrBadRef = errors.New("alloc: bad block reference")

	// ErrDoubleFree indicates Free on a block that is already free.
	ErrDoubleFree = errors.New("alloc: block already free")

	// ErrCorrupt indicates the arena or index failed verification.
	ErrCorrupt = errors.New("alloc: arena corrupt")

	// ErrClosed indicates use of an allocator whose arena was closed.
	ErrClosed = arena.ErrClosed
)
