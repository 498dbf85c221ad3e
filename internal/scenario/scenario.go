// Package scenario holds the numbered acceptance scenarios run against the
// process-wide heap. Each scenario gets a fresh 1024-byte arena.
package scenario

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/joshuapare/heapkit/arena/alloc"
	"github.com/joshuapare/heapkit/pkg/heap"
)

// ArenaSize is the capacity every scenario starts from.
const ArenaSize = 1024

// ErrUnknown is returned for a scenario number outside 1..len(All).
var ErrUnknown = errors.New("scenario: unknown scenario number")

// Check is one pass/fail assertion inside a scenario.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Result reports the outcome of one scenario run.
type Result struct {
	Number int         `json:"number"`
	Name   string      `json:"name"`
	Checks []Check     `json:"checks"`
	Usage  alloc.Usage `json:"usage"` // Snapshot taken just before teardown
}

// Passed reports whether every check passed.
func (r Result) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return len(r.Checks) > 0
}

// Scenario is a numbered, named sequence of heap operations.
type Scenario struct {
	Number int
	Name   string
	run    func(r *Result)
}

func (r *Result) check(name string, ok bool, format string, args ...any) {
	c := Check{Name: name, Passed: ok}
	if format != "" {
		c.Detail = fmt.Sprintf(format, args...)
	}
	r.Checks = append(r.Checks, c)
}

// All lists every scenario in number order.
var All = []Scenario{
	{1, "Simple Allocation", simpleAllocation},
	{2, "Boundary Allocation", boundaryAllocation},
	{3, "Fragmentation and Coalescing", fragmentation},
	{4, "Reallocation", reallocation},
	{5, "Stress Test with Repeated Allocations", stress},
	{6, "Memory Overrun", overrun},
	{7, "Memory Alignment", alignment},
}

// Lookup returns the scenario with the given number.
func Lookup(n int) (Scenario, error) {
	if n < 1 || n > len(All) {
		return Scenario{}, fmt.Errorf("%w: %d (want 1-%d)", ErrUnknown, n, len(All))
	}
	return All[n-1], nil
}

// Run executes scenario n on a fresh arena configured by opts (nil means
// alloc.DefaultOptions). The heap is torn down before Run returns.
func Run(n int, opts *alloc.Options) (Result, error) {
	s, err := Lookup(n)
	if err != nil {
		return Result{}, err
	}
	if err := heap.InitWithOptions(ArenaSize, opts); err != nil {
		return Result{}, fmt.Errorf("scenario %d: %w", n, err)
	}
	defer heap.Deinit()

	r := Result{Number: s.Number, Name: s.Name}
	s.run(&r)
	if err := heap.Verify(); err != nil {
		r.check("Invariants", false, "%v", err)
	}
	r.Usage = heap.Stats()
	return r, nil
}

// RunAll executes every scenario in order.
func RunAll(opts *alloc.Options) ([]Result, error) {
	results := make([]Result, 0, len(All))
	for _, s := range All {
		r, err := Run(s.Number, opts)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

func simpleAllocation(r *Result) {
	ref := heap.Malloc(128)
	r.check("Allocation", ref != 0, "ref=%d", ref)
	heap.Free(ref)
}

func boundaryAllocation(r *Result) {
	ref := heap.Malloc(896)
	r.check("Allocation", ref != 0, "ref=%d", ref)
	heap.Free(ref)
}

func fragmentation(r *Result) {
	p1 := heap.Malloc(128)
	p2 := heap.Malloc(128)
	heap.Free(p1)

	p3 := heap.Malloc(128)
	r.check("Allocation after Free", p3 != 0, "ref=%d", p3)

	heap.Free(p2)
	heap.Free(p3)

	p4 := heap.Malloc(256)
	r.check("Coalescing", p4 != 0, "ref=%d largest_free=%d", p4, heap.Stats().LargestFree)
	heap.Free(p4)
}

func reallocation(r *Result) {
	ref := heap.Malloc(128)
	copy(heap.Bytes(ref), "heapkit")

	ref = heap.Realloc(ref, 256)
	r.check("Reallocation", ref != 0, "ref=%d", ref)
	if ref != 0 {
		b := heap.Bytes(ref)
		r.check("Contents preserved", len(b) >= 7 && string(b[:7]) == "heapkit", "")
	}
	heap.Free(ref)
}

func stress(r *Result) {
	for i := range 50 {
		ref := heap.Malloc(16)
		if ref == 0 {
			r.check("Repeated allocation", false, "failed at iteration %d", i)
			return
		}
		heap.Free(ref)
	}
	r.check("Repeated allocation", true, "50 iterations, %d free blocks", heap.Stats().FreeBlocks)
}

func overrun(r *Result) {
	ref := heap.Malloc(2 * ArenaSize)
	r.check("Overrun refused", ref == 0, "")
	heap.Free(ref)
}

func alignment(r *Result) {
	ref := heap.Malloc(100)
	b := heap.Bytes(ref)
	if b == nil {
		r.check("Aligned", false, "allocation failed")
		return
	}
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	r.check("Aligned", addr%8 == 0, "addr=0x%X", addr)
	heap.Free(ref)
}
