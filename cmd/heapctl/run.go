package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/internal/scenario"
)

var (
	runTestNum int
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().IntVarP(&runTestNum, "test", "t", 0, "Run only scenario N (default: all)")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the numbered acceptance scenarios",
		Long: `The run command executes the numbered heap scenarios. Each scenario starts
from a fresh 1024-byte arena and tears it down afterwards; --capacity does
not apply.

Scenarios:
  1  Simple Allocation
  2  Boundary Allocation
  3  Fragmentation and Coalescing
  4  Reallocation
  5  Stress Test with Repeated Allocations
  6  Memory Overrun
  7  Memory Alignment

Example:
  heapctl run
  heapctl run -t 3
  heapctl run --policy first-fit --no-coalesce
  heapctl run --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios()
		},
	}
	return cmd
}

func runScenarios() error {
	opts, err := allocOptions()
	if err != nil {
		return err
	}

	var results []scenario.Result
	if runTestNum != 0 {
		r, err := scenario.Run(runTestNum, opts)
		if err != nil {
			return err
		}
		results = append(results, r)
	} else {
		results, err = scenario.RunAll(opts)
		if err != nil {
			return err
		}
	}

	failed := 0
	for _, r := range results {
		if !r.Passed() {
			failed++
		}
	}

	if jsonOut {
		if err := printJSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			printResult(r)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scenario(s) failed", failed, len(results))
	}
	return nil
}

func printResult(r scenario.Result) {
	printInfo("Test %d: %s\n", r.Number, r.Name)
	for _, c := range r.Checks {
		status := "Passed"
		if !c.Passed {
			status = "Failed"
		}
		if len(r.Checks) == 1 {
			printInfo("Test %d %s\n", r.Number, status)
		} else {
			printInfo("Test %d %s %s\n", r.Number, c.Name, status)
		}
		if c.Detail != "" {
			printVerbose("  %s\n", c.Detail)
		}
	}
	printVerbose("  usage: %d used / %d free bytes, %d free block(s)\n",
		r.Usage.InUseBytes, r.Usage.FreeBytes, r.Usage.FreeBlocks)
}
