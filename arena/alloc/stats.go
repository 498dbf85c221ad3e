package alloc

import "github.com/joshuapare/heapkit/internal/format"

// Stats holds allocator counters since New.
type Stats struct {
	AllocCalls       int // Total Alloc() calls, including those made by Realloc
	AllocZero        int // Alloc(0) calls answered with no allocation
	AllocFailures    int // Allocations refused with ErrNoSpace
	FreeCalls        int // Total Free() calls, including nil refs
	ReallocCalls     int // Total Realloc() calls
	ReallocInPlace   int // Reallocs answered with the same ref
	ReallocMoved     int // Reallocs that copied into a new block
	SplitCount       int // Blocks split on allocation
	CoalesceForward  int // Merges with the following block
	CoalesceBackward int // Merges with the preceding block
	IndexPushes      int // Free index insertions
	IndexRemoves     int // Free index removals
	PeakFreeBlocks   int // Largest free index length observed
}

// Usage is a point-in-time snapshot of arena occupancy.
type Usage struct {
	Capacity    int // Arena bytes, headers included
	HeaderBytes int // Bytes spent on block headers
	InUseBytes  int // Usable bytes handed out to callers
	FreeBytes   int // Usable bytes in free blocks
	LargestFree int // Usable bytes of the biggest free block
	UsedBlocks  int // Blocks handed out
	FreeBlocks  int // Blocks in the free index
}

// Fragmentation returns 1 - LargestFree/FreeBytes: 0 when all free space is
// one block, approaching 1 as free space splinters.
func (u Usage) Fragmentation() float64 {
	if u.FreeBytes == 0 {
		return 0
	}
	return 1 - float64(u.LargestFree)/float64(u.FreeBytes)
}

// Utilization returns the share of the arena handed out to callers.
func (u Usage) Utilization() float64 {
	if u.Capacity == 0 {
		return 0
	}
	return float64(u.InUseBytes) / float64(u.Capacity)
}

// Stats returns a copy of the allocator counters.
func (fa *Allocator) Stats() Stats {
	s := fa.stats
	s.IndexPushes = fa.idx.pushes
	s.IndexRemoves = fa.idx.removes
	s.PeakFreeBlocks = fa.idx.peak
	return s
}

// Usage computes the current occupancy from the allocator's own bookkeeping.
func (fa *Allocator) Usage() Usage {
	return Usage{
		Capacity:    fa.a.Capacity(),
		HeaderBytes: (fa.usedBlocks + fa.idx.Len()) * format.HeaderSize,
		InUseBytes:  fa.inUseBytes,
		FreeBytes:   fa.idx.totalFree(),
		LargestFree: fa.idx.largest(),
		UsedBlocks:  fa.usedBlocks,
		FreeBlocks:  fa.idx.Len(),
	}
}
