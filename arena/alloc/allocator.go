package alloc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joshuapare/heapkit/arena"
	"github.com/joshuapare/heapkit/arena/verify"
	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// Runtime debug flag for allocation tracing - controlled by HEAPKIT_LOG_ALLOC env var.
var logAlloc = os.Getenv("HEAPKIT_LOG_ALLOC") != ""

const headerSize = format.HeaderSize

// Ref is the offset of a block's usable region from the arena base.
// NilRef (0) means "no allocation".
type Ref = arena.Ref

// NilRef is the "no allocation" sentinel.
const NilRef = arena.NilRef

// Allocator implements malloc/free/realloc over a single arena.
//   - free blocks live in a min-heap keyed on size (see freeIndex)
//   - byOff/byEnd maps give O(1) neighbour lookup for coalescing
//   - the block following a header is found by address arithmetic only
type Allocator struct {
	a    *arena.Arena
	idx  *freeIndex
	opts Options
	log  *slog.Logger

	usedBlocks int
	inUseBytes int

	stats Stats
}

// New builds an allocator over a, seeding the free index by walking every
// block already present in the arena.
//
// Parameters:
//   - a: The arena to allocate from
//   - opts: Policy configuration (use nil for DefaultOptions)
func New(a *arena.Arena, opts *Options) (*Allocator, error) {
	if a == nil || a.Closed() {
		return nil, ErrClosed
	}
	if opts == nil {
		opts = &DefaultOptions
	}

	fa := &Allocator{
		a:    a,
		idx:  newFreeIndex(),
		opts: *opts,
		log:  opts.logger(),
	}
	if err := fa.initializeFreeIndex(); err != nil {
		return nil, err
	}
	return fa, nil
}

func (fa *Allocator) initializeFreeIndex() error {
	it := fa.a.Blocks()
	for {
		b, err := it.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if b.InUse {
			fa.usedBlocks++
			fa.inUseBytes += b.Size
			continue
		}
		fa.idx.insert(b.Off, b.Size)
	}
}

// Arena returns the arena this allocator manages.
func (fa *Allocator) Arena() *arena.Arena { return fa.a }

// Options returns the configuration in effect.
func (fa *Allocator) Options() Options { return fa.opts }

// Alloc hands out a block of at least size usable bytes.
//
// The size is rounded up to a multiple of 8 and the returned slice covers the
// whole usable region, zero-filled. Alloc(0) returns NilRef with no error and
// touches nothing. When no free block fits, Alloc logs a warning and returns
// ErrNoSpace with the arena unchanged.
func (fa *Allocator) Alloc(size int) (Ref, []byte, error) {
	fa.stats.AllocCalls++

	if fa.a.Closed() {
		return NilRef, nil, ErrClosed
	}
	if size == 0 {
		fa.stats.AllocZero++
		return NilRef, nil, nil
	}
	if size < 0 {
		return NilRef, nil, fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	if _, ok := buf.AddOverflowSafe(size, format.AlignmentMask); !ok || size > fa.a.Capacity() {
		return NilRef, nil, fa.noSpace(size)
	}
	need := format.Align8(size)

	off, blockSize, ok := fa.take(need)
	if !ok {
		return NilRef, nil, fa.noSpace(need)
	}

	blockSize = fa.split(off, blockSize, need)
	fa.a.WriteHeader(off, format.Header{Size: blockSize, Flags: format.FlagInUse})
	payload := fa.a.Payload(off, blockSize)
	clear(payload)

	fa.usedBlocks++
	fa.inUseBytes += blockSize

	if logAlloc {
		fmt.Fprintf(os.Stderr, "[ALLOC] Alloc(%d): aligned=%d block=%d at 0x%X\n",
			size, need, blockSize, off)
	}
	return arena.RefOf(off), payload, nil
}

// take pulls a candidate block out of the free index per the fit policy.
func (fa *Allocator) take(need int) (off, size int, ok bool) {
	switch fa.opts.Policy {
	case FirstFit:
		return fa.idx.firstFit(need)
	default:
		return fa.idx.bestFit(need)
	}
}

func (fa *Allocator) noSpace(need int) error {
	fa.stats.AllocFailures++
	fa.log.Warn("alloc: no block found for allocation",
		"need", need,
		"largest_free", fa.idx.largest(),
		"free_blocks", fa.idx.Len(),
		"policy", fa.opts.Policy.String(),
	)
	return fmt.Errorf("%w: need %d bytes", ErrNoSpace, need)
}

// split carves the tail of the block at off into a new free block when the
// leftover can hold a header plus at least one aligned unit. It returns the
// size the caller keeps: need after a split, the whole block otherwise.
func (fa *Allocator) split(off, size, need int) int {
	if size <= need+headerSize {
		// Absorb the remainder as internal fragmentation.
		return size
	}

	tailOff := off + headerSize + need
	tailSize := size - need - headerSize
	fa.a.WriteHeader(tailOff, format.Header{Size: tailSize})
	fa.idx.insert(tailOff, tailSize)
	fa.stats.SplitCount++

	if logAlloc {
		fmt.Fprintf(os.Stderr, "[SPLIT] block=%d need=%d tail=%d at 0x%X\n",
			size, need, tailSize, tailOff)
	}
	return need
}

// Free returns the block at ref to the free index.
//
// NilRef is a no-op. With coalescing enabled the block is merged with a free
// following block and a free preceding block before being indexed.
// Refs that do not resolve to a live block yield ErrBadRef or ErrDoubleFree
// and leave the arena untouched.
func (fa *Allocator) Free(ref Ref) error {
	fa.stats.FreeCalls++

	if ref == NilRef {
		return nil
	}
	off, h, err := fa.resolve(ref)
	if err != nil {
		return err
	}
	if h.Free() {
		return fmt.Errorf("%w: ref 0x%X", ErrDoubleFree, uint64(ref))
	}

	fa.usedBlocks--
	fa.inUseBytes -= h.Size

	size := h.Size
	if fa.opts.Coalesce {
		off, size = fa.coalesce(off, size)
	}
	fa.a.WriteHeader(off, format.Header{Size: size})
	fa.idx.insert(off, size)

	if logAlloc {
		fmt.Fprintf(os.Stderr, "[FREE] ref=0x%X -> free block %d at 0x%X (index=%d)\n",
			uint64(ref), size, off, fa.idx.Len())
	}
	return nil
}

// coalesce merges the block at off with free address-adjacent neighbours,
// removing their index entries. Absorbed headers are wiped so stale refs into
// the merged span are rejected later.
func (fa *Allocator) coalesce(off, size int) (int, int) {
	next := off + headerSize + size
	if next < fa.a.Capacity() {
		if nextSize, ok := fa.idx.remove(next); ok {
			fa.a.ClearHeader(next)
			size += headerSize + nextSize
			fa.stats.CoalesceForward++
		}
	}

	if prev, ok := fa.idx.endingAt(off); ok {
		prevSize, _ := fa.idx.remove(prev)
		fa.a.ClearHeader(off)
		size += headerSize + prevSize
		off = prev
		fa.stats.CoalesceBackward++
	}
	return off, size
}

// Realloc resizes the block at ref to hold at least size bytes.
//
//   - NilRef behaves as Alloc(size).
//   - If the block already holds size bytes, ref is returned unchanged; blocks
//     are never shrunk.
//   - Otherwise a new block is allocated, the old contents are copied, and
//     the old block is freed. If the new allocation fails the old block and
//     its contents are left untouched.
func (fa *Allocator) Realloc(ref Ref, size int) (Ref, []byte, error) {
	fa.stats.ReallocCalls++

	if ref == NilRef {
		return fa.Alloc(size)
	}
	if size < 0 {
		return NilRef, nil, fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	off, h, err := fa.resolve(ref)
	if err != nil {
		return NilRef, nil, err
	}
	if h.Free() {
		return NilRef, nil, fmt.Errorf("%w: ref 0x%X is not in use", ErrBadRef, uint64(ref))
	}

	if size <= h.Size {
		fa.stats.ReallocInPlace++
		return ref, fa.a.Payload(off, h.Size), nil
	}

	newRef, payload, err := fa.Alloc(size)
	if err != nil {
		return NilRef, nil, err
	}
	copy(payload, fa.a.Payload(off, min(h.Size, size)))
	if err := fa.Free(ref); err != nil {
		return NilRef, nil, err
	}
	fa.stats.ReallocMoved++
	return newRef, payload, nil
}

// Bytes returns the usable region of a live block.
func (fa *Allocator) Bytes(ref Ref) ([]byte, error) {
	off, h, err := fa.live(ref)
	if err != nil {
		return nil, err
	}
	return fa.a.Payload(off, h.Size), nil
}

// SizeOf returns the usable capacity of a live block.
func (fa *Allocator) SizeOf(ref Ref) (int, error) {
	_, h, err := fa.live(ref)
	if err != nil {
		return 0, err
	}
	return h.Size, nil
}

func (fa *Allocator) live(ref Ref) (int, format.Header, error) {
	off, h, err := fa.resolve(ref)
	if err != nil {
		return 0, format.Header{}, err
	}
	if h.Free() {
		return 0, format.Header{}, fmt.Errorf("%w: ref 0x%X is not in use", ErrBadRef, uint64(ref))
	}
	return off, h, nil
}

// resolve recovers the header behind ref. It rejects refs outside the arena,
// off the 8-byte grid, or whose header does not decode.
func (fa *Allocator) resolve(ref Ref) (int, format.Header, error) {
	if fa.a.Closed() {
		return 0, format.Header{}, ErrClosed
	}
	if ref < arena.Ref(headerSize) || ref >= arena.Ref(fa.a.Capacity()) || !format.IsAligned8(int(ref)) {
		return 0, format.Header{}, fmt.Errorf("%w: ref 0x%X outside arena of %d bytes",
			ErrBadRef, uint64(ref), fa.a.Capacity())
	}
	off := arena.HeaderOf(ref)
	h, err := fa.a.ReadHeader(off)
	if err != nil {
		return 0, format.Header{}, fmt.Errorf("%w: %w", ErrBadRef, err)
	}
	return off, h, nil
}

// FreeBlocks returns the free index entries in slot order.
func (fa *Allocator) FreeBlocks() []arena.Block {
	blocks := make([]arena.Block, 0, fa.idx.Len())
	fa.idx.walk(func(off, size int) {
		blocks = append(blocks, arena.Block{Off: off, Size: size})
	})
	return blocks
}

// IndexLen returns the number of entries in the free index.
func (fa *Allocator) IndexLen() int { return fa.idx.Len() }

// Verify walks the arena and cross-checks it against the free index and the
// allocator's counters. It returns an error wrapping ErrCorrupt on mismatch.
func (fa *Allocator) Verify() error {
	if fa.a.Closed() {
		return ErrClosed
	}
	if !fa.idx.heapOrdered() {
		return fmt.Errorf("%w: free index violates heap order", ErrCorrupt)
	}
	if err := verify.AllInvariants(fa.a, fa.FreeBlocks(), verify.Options{Coalesced: fa.opts.Coalesce}); err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	u := fa.Usage()
	blocks, err := fa.a.Collect()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	used, inUse := 0, 0
	for _, b := range blocks {
		if b.InUse {
			used++
			inUse += b.Size
		}
	}
	if used != u.UsedBlocks || inUse != u.InUseBytes {
		return fmt.Errorf("%w: counters say %d blocks/%d bytes in use, arena has %d/%d",
			ErrCorrupt, u.UsedBlocks, u.InUseBytes, used, inUse)
	}
	return nil
}
