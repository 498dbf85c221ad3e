package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatsCommand(t *testing.T) {
	resetFlags()

	output, err := captureOutput(t, func() error {
		return runStats([]string{"alloc 128", "alloc 128", "free #1"})
	})
	require.NoError(t, err)
	assertContains(t, output, []string{
		"Capacity:       1024 bytes",
		"Policy:         best-fit (coalesce=true)",
		"In use:         128 bytes in 1 block(s)",
		"Free:           848 bytes in 2 block(s)",
		"Operations (3 replayed, 0 refused)",
	})
}

func TestStatsCommand_JSON(t *testing.T) {
	resetFlags()
	jsonOut = true
	policy = "first-fit"
	noCoalesce = true

	output, err := captureOutput(t, func() error {
		return runStats([]string{"alloc 496", "alloc 496", "free #1", "free #2", "alloc 1008"})
	})
	require.NoError(t, err)
	assertJSON(t, output)

	var report StatsReport
	require.NoError(t, json.Unmarshal([]byte(output), &report))
	require.Equal(t, "first-fit", report.Policy)
	require.False(t, report.Coalesce)
	require.Equal(t, 5, report.Operations)
	require.Equal(t, 1, report.Refused, "without coalescing the halves cannot serve 1008 bytes")
	require.InDelta(t, 0.5, report.Fragmentation, 1e-9)
	require.Equal(t, 2, report.Usage.FreeBlocks)
}

func TestStatsCommand_BadCapacity(t *testing.T) {
	resetFlags()
	capacity = 1001

	_, err := captureOutput(t, func() error { return runStats(nil) })
	require.Error(t, err)
}
