package alloc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// Test_Fuzz_RandomAllocFreeRealloc performs random operations and validates
// invariants plus caller data after every step.
func Test_Fuzz_RandomAllocFreeRealloc(t *testing.T) {
	bothOptions(t, func(t *testing.T, opts Options) {
		fa := newTestAllocator(t, 16*1024, opts)

		rng := rand.New(rand.NewSource(42)) // Fixed seed for reproducibility
		live := make(map[Ref]byte)          // ref -> fill seed
		var order []Ref

		pick := func() (Ref, int) {
			i := rng.Intn(len(order))
			return order[i], i
		}
		drop := func(i int) {
			order[i] = order[len(order)-1]
			order = order[:len(order)-1]
		}

		for step := range 1000 {
			switch op := rng.Intn(4); {
			case op <= 1 || len(order) == 0: // Allocate
				size := 1 + rng.Intn(600)
				ref, payload, err := fa.Alloc(size)
				if err != nil {
					require.ErrorIs(t, err, ErrNoSpace, "step %d", step)
					break
				}
				seed := byte(step)
				fill(payload, seed)
				live[ref] = seed
				order = append(order, ref)

			case op == 2: // Free
				ref, i := pick()
				require.NoError(t, fa.Free(ref), "step %d", step)
				delete(live, ref)
				drop(i)

			default: // Realloc
				ref, i := pick()
				size := 1 + rng.Intn(1200)
				newRef, payload, err := fa.Realloc(ref, size)
				if err != nil {
					require.ErrorIs(t, err, ErrNoSpace, "step %d", step)
					break
				}
				seed := live[ref]
				delete(live, ref)
				live[newRef] = seed
				order[i] = newRef

				// Contents survive a move up to the old size; refill to keep
				// the whole block checkable.
				fill(payload, seed)
			}

			assertInvariants(t, fa)
			for ref, seed := range live {
				b, err := fa.Bytes(ref)
				require.NoError(t, err, "step %d", step)
				requirePattern(t, b, seed)
			}
		}

		for _, ref := range order {
			require.NoError(t, fa.Free(ref))
		}
		assertInvariants(t, fa)
		if opts.Coalesce {
			require.Equal(t, 1, fa.IndexLen(), "everything freed must merge back into one block")
		}
	})
}
