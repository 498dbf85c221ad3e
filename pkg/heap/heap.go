package heap

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/joshuapare/heapkit/arena"
	"github.com/joshuapare/heapkit/arena/alloc"
)

// Ref is the offset of an allocation's usable bytes; 0 means no allocation.
type Ref = alloc.Ref

// ErrNotInitialized is reported when an entry point runs before Init.
var ErrNotInitialized = errors.New("heap: not initialized")

var (
	mu sync.Mutex
	a  *arena.Arena
	fa *alloc.Allocator

	log = slog.Default()
)

// Init creates the process-wide arena with DefaultOptions.
// Any existing arena is torn down first.
func Init(capacity int) error {
	return InitWithOptions(capacity, nil)
}

// InitWithOptions is Init with an explicit allocator configuration (nil means
// alloc.DefaultOptions). On failure the heap is left uninitialised.
func InitWithOptions(capacity int, opts *alloc.Options) error {
	mu.Lock()
	defer mu.Unlock()

	if opts == nil {
		opts = &alloc.DefaultOptions
	}
	log = opts.Logger
	if log == nil {
		log = slog.Default()
	}

	teardown()

	na, err := arena.New(capacity)
	if err != nil {
		log.Error("heap: init failed", "capacity", capacity, "error", err)
		return err
	}
	nfa, err := alloc.New(na, opts)
	if err != nil {
		_ = na.Close()
		log.Error("heap: init failed", "capacity", capacity, "error", err)
		return err
	}
	a, fa = na, nfa
	return nil
}

// Deinit releases the arena. Calling it when not initialised is a no-op.
func Deinit() {
	mu.Lock()
	defer mu.Unlock()
	teardown()
}

func teardown() {
	if a == nil {
		return
	}
	if err := a.Close(); err != nil {
		log.Warn("heap: release failed", "error", err)
	}
	a, fa = nil, nil
}

// Initialized reports whether an arena is live.
func Initialized() bool {
	mu.Lock()
	defer mu.Unlock()
	return fa != nil
}

// Malloc returns a ref to at least size zeroed bytes, or 0.
func Malloc(size int) Ref {
	mu.Lock()
	defer mu.Unlock()

	if fa == nil {
		log.Warn("heap: malloc", "size", size, "error", ErrNotInitialized)
		return 0
	}
	ref, _, err := fa.Alloc(size)
	if err != nil {
		// Exhaustion is already logged by the allocator.
		if !errors.Is(err, alloc.ErrNoSpace) {
			log.Warn("heap: malloc", "size", size, "error", err)
		}
		return 0
	}
	return ref
}

// Free releases ref. Invalid refs are logged and ignored.
func Free(ref Ref) {
	mu.Lock()
	defer mu.Unlock()

	if ref == 0 {
		return
	}
	if fa == nil {
		log.Warn("heap: free", "ref", uint64(ref), "error", ErrNotInitialized)
		return
	}
	if err := fa.Free(ref); err != nil {
		log.Warn("heap: free", "ref", uint64(ref), "error", err)
	}
}

// Realloc resizes ref and returns the (possibly moved) ref, or 0 on failure.
// On failure the original allocation is still valid.
func Realloc(ref Ref, size int) Ref {
	mu.Lock()
	defer mu.Unlock()

	if fa == nil {
		log.Warn("heap: realloc", "ref", uint64(ref), "size", size, "error", ErrNotInitialized)
		return 0
	}
	newRef, _, err := fa.Realloc(ref, size)
	if err != nil {
		if !errors.Is(err, alloc.ErrNoSpace) {
			log.Warn("heap: realloc", "ref", uint64(ref), "size", size, "error", err)
		}
		return 0
	}
	return newRef
}

// Bytes returns the usable bytes of ref, or nil when ref is not a live allocation.
func Bytes(ref Ref) []byte {
	mu.Lock()
	defer mu.Unlock()

	if fa == nil || ref == 0 {
		return nil
	}
	b, err := fa.Bytes(ref)
	if err != nil {
		return nil
	}
	return b
}

// Stats returns an occupancy snapshot; the zero Usage when not initialised.
func Stats() alloc.Usage {
	mu.Lock()
	defer mu.Unlock()

	if fa == nil {
		return alloc.Usage{}
	}
	return fa.Usage()
}

// Counters returns the allocator's operation counters; zero when not initialised.
func Counters() alloc.Stats {
	mu.Lock()
	defer mu.Unlock()

	if fa == nil {
		return alloc.Stats{}
	}
	return fa.Stats()
}

// Verify checks the arena invariants.
func Verify() error {
	mu.Lock()
	defer mu.Unlock()

	if fa == nil {
		return ErrNotInitialized
	}
	return fa.Verify()
}

// Blocks returns the current block layout in address order.
func Blocks() ([]arena.Block, error) {
	mu.Lock()
	defer mu.Unlock()

	if a == nil {
		return nil, ErrNotInitialized
	}
	return a.Collect()
}
