package alloc

import "container/heap"

// freeBlock is one entry of the free index.
type freeBlock struct {
	off       int // Header offset in the arena
	size      int // Usable bytes
	heapIndex int // Position in the heap (for heap.Remove)
}

// freeBlockHeap implements heap.Interface as a min-heap keyed on size.
// Ties are broken by offset so the layout stays deterministic.
type freeBlockHeap []*freeBlock

func (h *freeBlockHeap) Len() int { return len(*h) }

func (h *freeBlockHeap) Less(i, j int) bool {
	a, b := (*h)[i], (*h)[j]
	if a.size != b.size {
		return a.size < b.size
	}
	return a.off < b.off
}

func (h *freeBlockHeap) Swap(i, j int) {
	(*h)[i], (*h)[j] = (*h)[j], (*h)[i]
	(*h)[i].heapIndex = i
	(*h)[j].heapIndex = j
}

func (h *freeBlockHeap) Push(x any) {
	fb := x.(*freeBlock) //nolint:errcheck // heap.Interface contract guarantees type
	fb.heapIndex = len(*h)
	*h = append(*h, fb)
}

func (h *freeBlockHeap) Pop() any {
	old := *h
	n := len(old)
	fb := old[n-1]
	old[n-1] = nil
	fb.heapIndex = -1
	*h = old[0 : n-1]
	return fb
}

// freeIndex holds every free block of the arena exactly once.
//   - h is a growable min-heap on size
//   - byOff maps header offset -> entry for O(1) arbitrary removal
//   - byEnd maps end offset -> header offset for O(1) backward neighbour lookup
type freeIndex struct {
	h     freeBlockHeap
	byOff map[int]*freeBlock
	byEnd map[int]int

	pushes  int
	removes int
	peak    int
}

func newFreeIndex() *freeIndex {
	return &freeIndex{
		h:     make(freeBlockHeap, 0, 16),
		byOff: make(map[int]*freeBlock, 16),
		byEnd: make(map[int]int, 16),
	}
}

// Len returns the number of free blocks.
func (x *freeIndex) Len() int { return x.h.Len() }

// insert appends a free block and sifts it toward the root.
func (x *freeIndex) insert(off, size int) {
	fb := &freeBlock{off: off, size: size}
	heap.Push(&x.h, fb)
	x.byOff[off] = fb
	x.byEnd[off+headerSize+size] = off
	x.pushes++
	if n := x.h.Len(); n > x.peak {
		x.peak = n
	}
}

// removeAt removes the entry at heap position i: the last entry takes its
// slot and is sifted to restore heap order.
func (x *freeIndex) removeAt(i int) (off, size int) {
	fb := heap.Remove(&x.h, i).(*freeBlock) //nolint:errcheck // heap contains only *freeBlock
	delete(x.byOff, fb.off)
	delete(x.byEnd, fb.off+headerSize+fb.size)
	x.removes++
	return fb.off, fb.size
}

// remove drops the free block whose header is at off.
func (x *freeIndex) remove(off int) (size int, ok bool) {
	fb, ok := x.byOff[off]
	if !ok {
		return 0, false
	}
	_, size = x.removeAt(fb.heapIndex)
	return size, true
}

// contains reports whether the block at off is indexed as free.
func (x *freeIndex) contains(off int) bool {
	_, ok := x.byOff[off]
	return ok
}

// endingAt returns the free block whose span ends exactly at end.
func (x *freeIndex) endingAt(end int) (off int, ok bool) {
	off, ok = x.byEnd[end]
	return off, ok
}

// firstFit scans entries in slot order (not heap order) and removes the
// first one with at least need bytes.
func (x *freeIndex) firstFit(need int) (off, size int, ok bool) {
	for i, fb := range x.h {
		if fb.size >= need {
			off, size = x.removeAt(i)
			return off, size, true
		}
	}
	return 0, 0, false
}

// bestFit removes the smallest entry with at least need bytes.
//
// Fast path: the root is the smallest block overall, so if it fits it is the
// best fit. Otherwise scan for the smallest entry that fits; ties go to the
// lower offset.
func (x *freeIndex) bestFit(need int) (off, size int, ok bool) {
	if x.h.Len() == 0 {
		return 0, 0, false
	}
	if x.h[0].size >= need {
		off, size = x.removeAt(0)
		return off, size, true
	}

	best := -1
	for i := 1; i < len(x.h); i++ {
		fb := x.h[i]
		if fb.size < need {
			continue
		}
		if best < 0 || fb.size < x.h[best].size ||
			(fb.size == x.h[best].size && fb.off < x.h[best].off) {
			best = i
		}
	}
	if best < 0 {
		return 0, 0, false
	}
	off, size = x.removeAt(best)
	return off, size, true
}

// largest returns the size of the biggest free block, 0 when empty.
func (x *freeIndex) largest() int {
	largest := 0
	for _, fb := range x.h {
		if fb.size > largest {
			largest = fb.size
		}
	}
	return largest
}

// totalFree sums usable bytes over all free blocks.
func (x *freeIndex) totalFree() int {
	total := 0
	for _, fb := range x.h {
		total += fb.size
	}
	return total
}

// walk calls fn for every entry in slot order.
func (x *freeIndex) walk(fn func(off, size int)) {
	for _, fb := range x.h {
		fn(fb.off, fb.size)
	}
}

// heapOrdered reports whether every parent is <= its children. Test helper.
func (x *freeIndex) heapOrdered() bool {
	for i := 1; i < len(x.h); i++ {
		if x.h.Less(i, (i-1)/2) {
			return false
		}
	}
	return true
}
