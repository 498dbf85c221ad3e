// Package alloc provides block allocation and free-index management for heap arenas.
//
// # Overview
//
// An Allocator hands out variable-sized blocks from a single arena.Arena. Free
// blocks are tracked in a min-heap keyed on usable size, with side maps from
// header offset and end offset so that any entry can be removed in O(log n)
// and a freed block's neighbours can be found in O(1).
//
// # Operations
//
//   - Alloc(size): round size up to 8 bytes, take a free block, split off the
//     remainder when it can form its own block, zero the usable bytes
//   - Free(ref): mark the block free, merge it with free neighbours, reindex it
//   - Realloc(ref, size): keep the block when it is already large enough,
//     otherwise allocate, copy and free
//
// Alloc(0) returns NilRef; Free(NilRef) is a no-op; Realloc(NilRef, n) is Alloc(n).
//
// # Policies
//
// Options selects the fit policy and whether freed blocks coalesce:
//
//   - DefaultOptions: best fit with coalescing
//   - LegacyOptions: first fit over index slots, no coalescing
//
// # Usage Example
//
//	a, err := arena.New(1024)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	fa, err := alloc.New(a, nil)
//	if err != nil {
//	    return err
//	}
//
//	ref, buf, err := fa.Alloc(128)
//	if err != nil {
//	    return err
//	}
//	copy(buf, "hello")
//
//	if err := fa.Free(ref); err != nil {
//	    return err
//	}
//
// # Errors
//
// Invalid refs are rejected rather than trusted: ErrBadRef for anything that
// does not resolve to a block header, ErrDoubleFree for a block that is
// already free. Exhaustion is ErrNoSpace and is also logged at warn level on
// the configured slog.Logger.
//
// # Debugging
//
// Set HEAPKIT_LOG_ALLOC=1 to trace allocations, splits and frees to stderr.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must provide external
// synchronization, as pkg/heap does.
package alloc
