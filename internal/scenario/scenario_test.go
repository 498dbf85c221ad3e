package scenario

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/arena/alloc"
	"github.com/joshuapare/heapkit/pkg/heap"
)

func quiet(base alloc.Options) *alloc.Options {
	o := base
	o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return &o
}

func TestRun_AllPass(t *testing.T) {
	for _, opts := range []alloc.Options{alloc.DefaultOptions, alloc.LegacyOptions} {
		t.Run(opts.Name, func(t *testing.T) {
			results, err := RunAll(quiet(opts))
			require.NoError(t, err)
			require.Len(t, results, len(All))

			for i, r := range results {
				require.Equal(t, i+1, r.Number)
				require.True(t, r.Passed(), "scenario %d %q: %+v", r.Number, r.Name, r.Checks)
				require.Zero(t, r.Usage.UsedBlocks, "scenario %d leaked", r.Number)
			}
			require.False(t, heap.Initialized(), "heap must be torn down after each run")
		})
	}
}

func TestRun_Unknown(t *testing.T) {
	for _, n := range []int{0, -1, len(All) + 1} {
		_, err := Run(n, nil)
		require.ErrorIs(t, err, ErrUnknown)
	}
}

func TestLookup_Names(t *testing.T) {
	s, err := Lookup(6)
	require.NoError(t, err)
	require.Equal(t, "Memory Overrun", s.Name)

	s, err = Lookup(3)
	require.NoError(t, err)
	require.Equal(t, "Fragmentation and Coalescing", s.Name)
}

func TestFragmentation_Checks(t *testing.T) {
	r, err := Run(3, quiet(alloc.DefaultOptions))
	require.NoError(t, err)
	require.Len(t, r.Checks, 2)
	require.Equal(t, "Allocation after Free", r.Checks[0].Name)
	require.Equal(t, "Coalescing", r.Checks[1].Name)
	require.Equal(t, ArenaSize-16, r.Usage.LargestFree)
}

func TestResult_Passed(t *testing.T) {
	require.False(t, Result{}.Passed(), "a result without checks is not a pass")
	require.False(t, Result{Checks: []Check{{Passed: true}, {Passed: false}}}.Passed())
	require.True(t, Result{Checks: []Check{{Passed: true}}}.Passed())
}
