package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/arena/alloc"
)

var (
	stressIterations  int
	stressMaxSize     int
	stressSeed        int64
	stressVerifyEvery int
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVar(&stressIterations, "iterations", 10000, "Number of random operations")
	cmd.Flags().IntVar(&stressMaxSize, "max-size", 256, "Largest request size in bytes")
	cmd.Flags().Int64Var(&stressSeed, "seed", 1, "Random seed")
	cmd.Flags().IntVar(&stressVerifyEvery, "verify-every", 100, "Check arena invariants every N operations (0 = only at the end)")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Hammer an arena with random alloc/free/realloc calls",
		Long: `The stress command runs a seeded random mix of allocations, frees and
reallocations, checking arena invariants as it goes. Every live allocation
is filled with a pattern that is re-checked before it is freed.

Example:
  heapctl stress
  heapctl stress --capacity 65536 --iterations 100000 --max-size 2048
  heapctl stress --policy first-fit --no-coalesce --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
	return cmd
}

// StressReport is the JSON shape of the stress command.
type StressReport struct {
	Iterations int           `json:"iterations"`
	Seed       int64         `json:"seed"`
	Refused    int           `json:"refused"`
	PeakLive   int           `json:"peak_live"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	Usage      alloc.Usage   `json:"usage"`
	Counters   alloc.Stats   `json:"counters"`
}

type liveBlock struct {
	ref  alloc.Ref
	seed byte
}

func runStress() error {
	if stressIterations < 1 || stressMaxSize < 1 {
		return errors.New("--iterations and --max-size must be at least 1")
	}

	fa, closeArena, err := openAllocator()
	if err != nil {
		return err
	}
	defer closeArena()

	var out io.Writer = os.Stderr
	if quiet || jsonOut {
		out = io.Discard
	}
	bar := progressbar.NewOptions(stressIterations,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("stress"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	rng := rand.New(rand.NewSource(stressSeed))
	var live []liveBlock
	report := StressReport{Iterations: stressIterations, Seed: stressSeed}
	start := time.Now()

	for i := range stressIterations {
		switch op := rng.Intn(10); {
		case op < 5 || len(live) == 0:
			ref, payload, err := fa.Alloc(1 + rng.Intn(stressMaxSize))
			if errors.Is(err, alloc.ErrNoSpace) {
				report.Refused++
				break
			}
			if err != nil {
				return fmt.Errorf("iteration %d: %w", i, err)
			}
			seed := byte(i)
			fillPattern(payload, seed)
			live = append(live, liveBlock{ref: ref, seed: seed})

		case op < 8:
			j := rng.Intn(len(live))
			if err := checkPattern(fa, live[j]); err != nil {
				return fmt.Errorf("iteration %d: %w", i, err)
			}
			if err := fa.Free(live[j].ref); err != nil {
				return fmt.Errorf("iteration %d: %w", i, err)
			}
			live[j] = live[len(live)-1]
			live = live[:len(live)-1]

		default:
			j := rng.Intn(len(live))
			ref, payload, err := fa.Realloc(live[j].ref, 1+rng.Intn(2*stressMaxSize))
			if errors.Is(err, alloc.ErrNoSpace) {
				report.Refused++
				break
			}
			if err != nil {
				return fmt.Errorf("iteration %d: %w", i, err)
			}
			fillPattern(payload, live[j].seed)
			live[j].ref = ref
		}

		report.PeakLive = max(report.PeakLive, len(live))
		if stressVerifyEvery > 0 && (i+1)%stressVerifyEvery == 0 {
			if err := fa.Verify(); err != nil {
				return fmt.Errorf("iteration %d: %w", i, err)
			}
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	for _, lb := range live {
		if err := checkPattern(fa, lb); err != nil {
			return err
		}
		if err := fa.Free(lb.ref); err != nil {
			return err
		}
	}
	if err := fa.Verify(); err != nil {
		return err
	}

	report.Elapsed = time.Since(start)
	report.Usage = fa.Usage()
	report.Counters = fa.Stats()

	if jsonOut {
		return printJSON(report)
	}

	printInfo("Stress: %d operations in %s (seed %d)\n", report.Iterations, report.Elapsed.Round(time.Microsecond), report.Seed)
	printInfo("  Refused:        %d\n", report.Refused)
	printInfo("  Peak live:      %d block(s)\n", report.PeakLive)
	printInfo("  Splits:         %d\n", report.Counters.SplitCount)
	printInfo("  Coalesces:      %d\n", report.Counters.CoalesceForward+report.Counters.CoalesceBackward)
	printInfo("  Free blocks:    %d after releasing everything\n", report.Usage.FreeBlocks)
	return nil
}

func fillPattern(b []byte, seed byte) {
	for i := range b {
		b[i] = seed ^ byte(i)
	}
}

func checkPattern(fa *alloc.Allocator, lb liveBlock) error {
	b, err := fa.Bytes(lb.ref)
	if err != nil {
		return err
	}
	for i := range b {
		if b[i] != lb.seed^byte(i) {
			return fmt.Errorf("block 0x%X corrupted at byte %d", uint64(lb.ref), i)
		}
	}
	return nil
}
