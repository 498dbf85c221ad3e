// Package verify provides validation functions for heap arenas.
//
// # Overview
//
// The checks walk an arena header by header and cross-check what they find
// against an allocator's free index. They are used by the allocator's Verify
// method and throughout the tests to make sure every operation keeps the
// arena consistent.
//
// Validation categories:
//   - Tiling: headers decode, sizes are 8-aligned, blocks cover the arena exactly
//   - Alignment: every usable region starts on an 8-byte address
//   - Free index: one entry per free block, sizes agree with the headers
//   - Coalescing: no two free blocks are address-adjacent
//
// # Quick Start
//
// Validate all invariants in one call:
//
//	if err := verify.AllInvariants(a, fa.FreeBlocks(), verify.Options{Coalesced: true}); err != nil {
//	    fmt.Printf("Validation failed: %v\n", err)
//	}
//
// Validate specific aspects:
//
//	if err := verify.Tiling(a); err != nil {
//	    fmt.Printf("Arena layout invalid: %v\n", err)
//	}
//
// # ValidationError
//
// Every check reports failures as *ValidationError, carrying the check name,
// the offending header offset (-1 when not tied to one block) and optional
// details:
//
//	var ve *verify.ValidationError
//	if errors.As(err, &ve) {
//	    fmt.Printf("%s failed at 0x%X: %s\n", ve.Type, ve.Offset, ve.Message)
//	}
package verify
