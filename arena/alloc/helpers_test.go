package alloc

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/arena"
)

// ============================================================================
// Allocator Creation Utilities
// ============================================================================

// quietOptions returns a copy of base whose logger discards output.
func quietOptions(base Options) *Options {
	o := base
	o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return &o
}

// newTestAllocator creates an arena of capacity bytes and an allocator over it.
// The arena is closed when the test ends.
func newTestAllocator(t testing.TB, capacity int, base Options) *Allocator {
	t.Helper()

	a, err := arena.New(capacity)
	require.NoError(t, err, "failed to create test arena")
	t.Cleanup(func() { _ = a.Close() })

	fa, err := New(a, quietOptions(base))
	require.NoError(t, err, "failed to create allocator")
	return fa
}

// newLoggedAllocator is newTestAllocator with a logger writing to the returned buffer.
func newLoggedAllocator(t testing.TB, capacity int, base Options) (*Allocator, *bytes.Buffer) {
	t.Helper()

	a, err := arena.New(capacity)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	var logs bytes.Buffer
	o := base
	o.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	fa, err := New(a, &o)
	require.NoError(t, err)
	return fa, &logs
}

// bothOptions runs fn once per predefined configuration.
func bothOptions(t *testing.T, fn func(t *testing.T, opts Options)) {
	for _, opts := range []Options{DefaultOptions, LegacyOptions} {
		t.Run(opts.Name, func(t *testing.T) { fn(t, opts) })
	}
}

// ============================================================================
// Invariant Checks
// ============================================================================

// assertInvariants verifies the arena against the free index and checks that
// headers, usable bytes and free bytes add up to the capacity.
func assertInvariants(t testing.TB, fa *Allocator) {
	t.Helper()

	require.NoError(t, fa.Verify(), "arena invariants violated")

	u := fa.Usage()
	require.Equal(t, u.Capacity, u.HeaderBytes+u.InUseBytes+u.FreeBytes,
		"bytes unaccounted for: %+v", u)
}

// fill writes a recognisable pattern derived from seed.
func fill(b []byte, seed byte) {
	for i := range b {
		b[i] = seed + byte(i)
	}
}

// requirePattern checks that b still holds the pattern written by fill.
func requirePattern(t testing.TB, b []byte, seed byte) {
	t.Helper()
	for i := range b {
		if b[i] != seed+byte(i) {
			require.Failf(t, "pattern mismatch", "byte %d: got 0x%02X want 0x%02X", i, b[i], seed+byte(i))
		}
	}
}
