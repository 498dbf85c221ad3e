package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/scenario"
)

func TestRunCommand(t *testing.T) {
	tests := []struct {
		name           string
		test           int
		policy         string
		noCoalesce     bool
		wantErr        bool
		wantContain    []string
		wantNotContain []string
	}{
		{
			name: "all scenarios",
			wantContain: []string{
				"Test 1: Simple Allocation", "Test 1 Passed",
				"Test 3 Allocation after Free Passed", "Test 3 Coalescing Passed",
				"Test 6: Memory Overrun", "Test 7 Passed",
			},
			wantNotContain: []string{"Failed"},
		},
		{
			name:           "single scenario",
			test:           4,
			wantContain:    []string{"Test 4: Reallocation", "Test 4 Reallocation Passed"},
			wantNotContain: []string{"Test 1", "Test 5"},
		},
		{
			name:           "legacy configuration",
			policy:         "first-fit",
			noCoalesce:     true,
			wantContain:    []string{"Test 5 Passed", "Test 3 Coalescing Passed"},
			wantNotContain: []string{"Failed"},
		},
		{
			name:    "unknown scenario",
			test:    9,
			wantErr: true,
		},
		{
			name:    "bad policy",
			policy:  "worst-fit",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			runTestNum = tt.test
			if tt.policy != "" {
				policy = tt.policy
			}
			noCoalesce = tt.noCoalesce

			output, err := captureOutput(t, runScenarios)
			if (err != nil) != tt.wantErr {
				t.Fatalf("runScenarios() error = %v, wantErr %v", err, tt.wantErr)
			}
			assertContains(t, output, tt.wantContain)
			assertNotContains(t, output, tt.wantNotContain)
		})
	}
}

func TestRunCommand_JSON(t *testing.T) {
	resetFlags()
	jsonOut = true

	output, err := captureOutput(t, runScenarios)
	require.NoError(t, err)
	assertJSON(t, output)

	var results []scenario.Result
	require.NoError(t, json.Unmarshal([]byte(output), &results))
	require.Len(t, results, len(scenario.All))
	for _, r := range results {
		require.True(t, r.Passed(), "scenario %d", r.Number)
	}
}
