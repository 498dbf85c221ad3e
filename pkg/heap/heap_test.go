package heap

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/arena"
	"github.com/joshuapare/heapkit/arena/alloc"
)

// setup initialises the process-wide heap with a logger writing to the
// returned buffer and tears it down when the test ends.
func setup(t *testing.T, capacity int, base alloc.Options) *bytes.Buffer {
	t.Helper()

	var logs bytes.Buffer
	opts := base
	opts.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	require.NoError(t, InitWithOptions(capacity, &opts))
	t.Cleanup(Deinit)
	return &logs
}

func TestInitDeinit(t *testing.T) {
	setup(t, 1024, alloc.DefaultOptions)
	require.True(t, Initialized())

	u := Stats()
	assert.Equal(t, 1024, u.Capacity)
	assert.Equal(t, 1008, u.LargestFree)

	Deinit()
	require.False(t, Initialized())
	require.Equal(t, alloc.Usage{}, Stats())

	// Second Deinit is a no-op.
	Deinit()
}

func TestInit_ReplacesExistingArena(t *testing.T) {
	setup(t, 1024, alloc.DefaultOptions)
	require.NotZero(t, Malloc(512))

	require.NoError(t, InitWithOptions(2048, nil))
	u := Stats()
	assert.Equal(t, 2048, u.Capacity)
	assert.Zero(t, u.UsedBlocks, "re-init must start from a fresh arena")
}

func TestInit_Failure(t *testing.T) {
	logs := setup(t, 1024, alloc.DefaultOptions)

	opts := alloc.DefaultOptions
	opts.Logger = slog.New(slog.NewTextHandler(logs, nil))
	err := InitWithOptions(1001, &opts)
	require.ErrorIs(t, err, arena.ErrArenaInit)
	require.ErrorIs(t, err, arena.ErrBadCapacity)
	require.False(t, Initialized(), "failed init leaves the heap uninitialised")
	require.Contains(t, logs.String(), "heap: init failed")
}

func TestUninitialised(t *testing.T) {
	Deinit()

	require.Zero(t, Malloc(16))
	require.Zero(t, Realloc(0, 16))
	require.Nil(t, Bytes(16))
	Free(16)
	require.ErrorIs(t, Verify(), ErrNotInitialized)
	_, err := Blocks()
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestMallocFreeRealloc(t *testing.T) {
	setup(t, 1024, alloc.DefaultOptions)

	require.Zero(t, Malloc(0))
	Free(0)

	ref := Malloc(128)
	require.Equal(t, Ref(16), ref)
	b := Bytes(ref)
	require.Len(t, b, 128)
	copy(b, "payload")

	grown := Realloc(ref, 256)
	require.NotZero(t, grown)
	require.NotEqual(t, ref, grown)
	require.Equal(t, "payload", string(Bytes(grown)[:7]))

	same := Realloc(grown, 64)
	require.Equal(t, grown, same)

	Free(grown)
	require.NoError(t, Verify())
	require.Equal(t, 1, Stats().FreeBlocks)
}

func TestMalloc_Exhaustion(t *testing.T) {
	logs := setup(t, 1024, alloc.DefaultOptions)

	require.Zero(t, Malloc(2048))
	require.Contains(t, logs.String(), "no block found")
	require.Equal(t, 1, Counters().AllocFailures)
}

func TestRealloc_FailureKeepsOriginal(t *testing.T) {
	setup(t, 1024, alloc.DefaultOptions)

	ref := Malloc(128)
	copy(Bytes(ref), "keep")

	require.Zero(t, Realloc(ref, 4096))
	require.Equal(t, "keep", string(Bytes(ref)[:4]))
}

func TestFree_BadRefLogged(t *testing.T) {
	logs := setup(t, 1024, alloc.DefaultOptions)

	ref := Malloc(32)
	Malloc(32) // fence
	Free(ref)
	Free(ref)

	require.Contains(t, logs.String(), "block already free")
	require.NoError(t, Verify())
}

func TestBlocks(t *testing.T) {
	setup(t, 1024, alloc.LegacyOptions)

	a := Malloc(128)
	Malloc(128)
	Free(a)

	blocks, err := Blocks()
	require.NoError(t, err)
	require.Equal(t, []arena.Block{
		{Off: 0, Size: 128},
		{Off: 144, Size: 128, InUse: true},
		{Off: 288, Size: 720},
	}, blocks)
}

func TestConcurrentAccess(t *testing.T) {
	setup(t, 64*1024, alloc.DefaultOptions)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				ref := Malloc(16 + (g+i)%64)
				if ref == 0 {
					continue
				}
				ref = Realloc(ref, 128)
				Free(ref)
			}
		}()
	}
	wg.Wait()

	require.NoError(t, Verify())
	u := Stats()
	assert.Zero(t, u.UsedBlocks)
	assert.Equal(t, 1, u.FreeBlocks)
}
