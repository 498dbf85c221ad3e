package arena

import "errors"

var (
	// ErrArenaInit indicates the arena region could not be obtained.
	ErrArenaInit = errors.New("arena: init failed")

	// ErrBadCapacity indicates a requested capacity that cannot host a block.
	ErrBadCapacity = errors.New("arena: capacity must be a multiple of 8 and hold at least one block")

	// ErrClosed indicates use of an arena after Close.
	ErrClosed = errors.New("arena: closed")

	// ErrOutOfRange indicates a header offset or block span outside the arena.
	ErrOutOfRange = errors.New("arena: offset out of range")
)
