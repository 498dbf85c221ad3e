/*
Package heap provides a process-wide heap backed by a single arena, mirroring
the classic malloc/free/realloc entry points.

# Quick Start

	if err := heap.Init(1024); err != nil {
	    log.Fatal(err)
	}
	defer heap.Deinit()

	ref := heap.Malloc(128)
	if ref == 0 {
	    log.Fatal("out of memory")
	}
	copy(heap.Bytes(ref), "hello")

	ref = heap.Realloc(ref, 256)
	heap.Free(ref)

# Semantics

  - Malloc(0) returns 0 and allocates nothing.
  - Free(0) is a no-op.
  - Realloc(0, n) behaves like Malloc(n); Realloc never shrinks a block.
  - Every failure (exhaustion, bad ref, use before Init) returns 0 or does
    nothing, and is reported on the configured slog.Logger.

# Concurrency

The five entry points are serialised by one mutex, so the package may be used
from several goroutines. Code that needs independent arenas or wants errors
returned should use arena and arena/alloc directly.
*/
package heap
