package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/arena/alloc"
)

var (
	statsFile string
)

func init() {
	cmd := newStatsCmd()
	cmd.Flags().StringVarP(&statsFile, "file", "f", "", "Read operations from file (- for stdin)")
	rootCmd.AddCommand(cmd)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [op...]",
		Short: "Replay operations and show allocator statistics",
		Long: `The stats command replays a sequence of allocator operations (same syntax
as map) and reports occupancy, fragmentation and operation counters.

Example:
  heapctl stats "alloc 128" "alloc 256" "free #1"
  heapctl stats -f ops.txt --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(args)
		},
	}
	return cmd
}

// StatsReport is the JSON shape of the stats command.
type StatsReport struct {
	Policy        string      `json:"policy"`
	Coalesce      bool        `json:"coalesce"`
	Operations    int         `json:"operations"`
	Refused       int         `json:"refused"`
	Usage         alloc.Usage `json:"usage"`
	Fragmentation float64     `json:"fragmentation"`
	Utilization   float64     `json:"utilization"`
	Counters      alloc.Stats `json:"counters"`
}

func runStats(args []string) error {
	ops, err := loadOps(statsFile, args)
	if err != nil {
		return err
	}

	fa, closeArena, err := openAllocator()
	if err != nil {
		return err
	}
	defer closeArena()

	s := &session{fa: fa}
	if err := s.run(ops); err != nil {
		return err
	}
	if err := fa.Verify(); err != nil {
		return err
	}

	u := fa.Usage()
	report := StatsReport{
		Policy:        fa.Options().Policy.String(),
		Coalesce:      fa.Options().Coalesce,
		Operations:    len(ops),
		Refused:       s.failed,
		Usage:         u,
		Fragmentation: u.Fragmentation(),
		Utilization:   u.Utilization(),
		Counters:      fa.Stats(),
	}

	if jsonOut {
		return printJSON(report)
	}

	printInfo("Arena\n")
	printInfo("  Capacity:       %d bytes\n", u.Capacity)
	printInfo("  Policy:         %s (coalesce=%v)\n", report.Policy, report.Coalesce)
	printInfo("  In use:         %d bytes in %d block(s)\n", u.InUseBytes, u.UsedBlocks)
	printInfo("  Free:           %d bytes in %d block(s)\n", u.FreeBytes, u.FreeBlocks)
	printInfo("  Headers:        %d bytes\n", u.HeaderBytes)
	printInfo("  Largest free:   %d bytes\n", u.LargestFree)
	printInfo("  Fragmentation:  %.1f%%\n", report.Fragmentation*100)
	printInfo("  Utilization:    %.1f%%\n", report.Utilization*100)

	c := report.Counters
	printInfo("\nOperations (%d replayed, %d refused)\n", report.Operations, report.Refused)
	printInfo("  Alloc:          %d (zero-size %d, failed %d)\n", c.AllocCalls, c.AllocZero, c.AllocFailures)
	printInfo("  Free:           %d\n", c.FreeCalls)
	printInfo("  Realloc:        %d (in place %d, moved %d)\n", c.ReallocCalls, c.ReallocInPlace, c.ReallocMoved)
	printInfo("  Splits:         %d\n", c.SplitCount)
	printInfo("  Coalesces:      %d forward, %d backward\n", c.CoalesceForward, c.CoalesceBackward)
	printVerbose("  Index:          %d pushes, %d removes, peak %d\n", c.IndexPushes, c.IndexRemoves, c.PeakFreeBlocks)
	return nil
}
