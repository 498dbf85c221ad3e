package verify

import (
	"fmt"

	"github.com/joshuapare/heapkit/arena"
	"github.com/joshuapare/heapkit/internal/format"
)

// ValidationError describes a single failed check.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
	Details map[string]any
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Options selects which optional invariants apply.
type Options struct {
	// Coalesced requires that no two free blocks are address-adjacent.
	Coalesced bool
}

// AllInvariants validates all arena invariants in one call.
// Returns the first error encountered, or nil if all checks pass.
func AllInvariants(a *arena.Arena, free []arena.Block, opts Options) error {
	if err := Tiling(a); err != nil {
		return err
	}
	if err := Alignment(a); err != nil {
		return err
	}
	if err := FreeIndex(a, free); err != nil {
		return err
	}
	if opts.Coalesced {
		if err := NoAdjacentFree(a); err != nil {
			return err
		}
	}
	return nil
}

// Tiling validates that blocks laid end to end cover exactly the arena:
// every header decodes, every size is 8-aligned and nonzero, and the last
// block ends at the capacity.
func Tiling(a *arena.Arena) error {
	if a.Closed() {
		return &ValidationError{Type: "Tiling", Message: "arena is closed", Offset: -1}
	}
	data := a.Bytes()
	capacity := a.Capacity()

	off, count := 0, 0
	for off < capacity {
		if off+format.HeaderSize > capacity {
			return &ValidationError{
				Type:    "Tiling",
				Message: fmt.Sprintf("%d trailing bytes cannot hold a header", capacity-off),
				Offset:  off,
			}
		}
		h, err := format.DecodeHeader(data, off)
		if err != nil {
			return &ValidationError{
				Type:    "Tiling",
				Message: err.Error(),
				Offset:  off,
			}
		}
		if h.Size < format.MinBlockSize {
			return &ValidationError{
				Type:    "Tiling",
				Message: fmt.Sprintf("block size %d below minimum %d", h.Size, format.MinBlockSize),
				Offset:  off,
			}
		}
		if off+h.Span() > capacity {
			return &ValidationError{
				Type:    "Tiling",
				Message: fmt.Sprintf("block extends beyond arena: end=0x%X, capacity=0x%X", off+h.Span(), capacity),
				Offset:  off,
			}
		}
		off += h.Span()
		count++
	}

	if count == 0 {
		return &ValidationError{Type: "Tiling", Message: "no blocks found", Offset: -1}
	}
	return nil
}

// Alignment validates that the arena base and every usable region are 8-byte aligned.
func Alignment(a *arena.Arena) error {
	if base := a.Base(); base%format.Alignment != 0 {
		return &ValidationError{
			Type:    "Alignment",
			Message: fmt.Sprintf("arena base 0x%X is not 8-byte aligned", base),
			Offset:  -1,
		}
	}
	blocks, err := a.Collect()
	if err != nil {
		return &ValidationError{Type: "Alignment", Message: err.Error(), Offset: -1}
	}
	for _, b := range blocks {
		if !format.IsAligned8(int(b.Ref())) {
			return &ValidationError{
				Type:    "Alignment",
				Message: fmt.Sprintf("usable region at 0x%X is not 8-byte aligned", uint64(b.Ref())),
				Offset:  b.Off,
			}
		}
	}
	return nil
}

// FreeIndex validates that free lists exactly the free blocks of the arena,
// each once, with sizes matching their headers.
func FreeIndex(a *arena.Arena, free []arena.Block) error {
	seen := make(map[int]bool, len(free))
	for _, fb := range free {
		if seen[fb.Off] {
			return &ValidationError{
				Type:    "FreeIndex",
				Message: "block indexed more than once",
				Offset:  fb.Off,
			}
		}
		seen[fb.Off] = true

		h, err := a.ReadHeader(fb.Off)
		if err != nil {
			return &ValidationError{
				Type:    "FreeIndex",
				Message: fmt.Sprintf("indexed block does not decode: %v", err),
				Offset:  fb.Off,
			}
		}
		if h.InUse() {
			return &ValidationError{
				Type:    "FreeIndex",
				Message: "indexed block is marked in use",
				Offset:  fb.Off,
			}
		}
		if h.Size != fb.Size {
			return &ValidationError{
				Type:    "FreeIndex",
				Message: fmt.Sprintf("size mismatch: index=%d, header=%d", fb.Size, h.Size),
				Offset:  fb.Off,
				Details: map[string]any{
					"index":  fb.Size,
					"header": h.Size,
				},
			}
		}
	}

	blocks, err := a.Collect()
	if err != nil {
		return &ValidationError{Type: "FreeIndex", Message: err.Error(), Offset: -1}
	}
	freeCount := 0
	for _, b := range blocks {
		if b.InUse {
			continue
		}
		freeCount++
		if !seen[b.Off] {
			return &ValidationError{
				Type:    "FreeIndex",
				Message: fmt.Sprintf("free block of %d bytes missing from index", b.Size),
				Offset:  b.Off,
			}
		}
	}
	if freeCount != len(free) {
		return &ValidationError{
			Type:    "FreeIndex",
			Message: fmt.Sprintf("index holds %d entries, arena has %d free blocks", len(free), freeCount),
			Offset:  -1,
			Details: map[string]any{
				"index": len(free),
				"arena": freeCount,
			},
		}
	}
	return nil
}

// NoAdjacentFree validates that no free block is immediately followed by
// another free block.
func NoAdjacentFree(a *arena.Arena) error {
	blocks, err := a.Collect()
	if err != nil {
		return &ValidationError{Type: "NoAdjacentFree", Message: err.Error(), Offset: -1}
	}
	for i := 1; i < len(blocks); i++ {
		if !blocks[i-1].InUse && !blocks[i].InUse {
			return &ValidationError{
				Type:    "NoAdjacentFree",
				Message: fmt.Sprintf("free blocks at 0x%X and 0x%X were not merged", blocks[i-1].Off, blocks[i].Off),
				Offset:  blocks[i-1].Off,
			}
		}
	}
	return nil
}
