// Package arena provides the raw memory arena and block layout behind heapkit.
//
// # Overview
//
// An Arena owns exactly one contiguous region of memory obtained from the
// operating system (an anonymous mapping on unix, a Go byte slice elsewhere).
// The region is tiled by blocks; every block is a fixed 16-byte header
// followed by its usable bytes:
//
//	[hdr|usable........][hdr|usable..][hdr|usable.............]
//	^ offset 0                                    capacity ^
//
// A freshly created arena holds a single free block spanning
// capacity - HeaderSize usable bytes.
//
// # Refs
//
// Callers never hold header offsets. They hold a Ref: the offset of the usable
// region from the arena base. The header is always recovered as
// HeaderOf(ref) = ref - HeaderSize. Ref 0 (NilRef) means "no allocation",
// since the first usable region starts at offset HeaderSize.
//
// # Walking Blocks
//
// Neighbours are found only by address arithmetic: the block following the
// header at off starts at off + HeaderSize + size. Blocks() walks the arena
// this way:
//
//	it := a.Blocks()
//	for {
//	    b, err := it.Next()
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(b.Off, b.Size, b.InUse)
//	}
//
// # Thread Safety
//
// Arena instances are not thread-safe. The allocation policy lives in
// github.com/joshuapare/heapkit/arena/alloc.
package arena
