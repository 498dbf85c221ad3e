package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/arena"
)

func TestMapCommand(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		policy         string
		noCoalesce     bool
		wantErr        bool
		wantContain    []string
		wantNotContain []string
	}{
		{
			name:        "fresh arena",
			wantContain: []string{"Arena 1024 bytes, 1 block(s)", "0x0000", "1008", "free"},
		},
		{
			name:        "two allocations one freed",
			args:        []string{"alloc 128", "alloc 128", "free #1"},
			noCoalesce:  true,
			wantContain: []string{"3 block(s)", "used  #2", "0x0090"},
		},
		{
			name:           "coalesced back to one block",
			args:           []string{"alloc 128", "alloc 128", "free #1", "free #2"},
			wantContain:    []string{"1 block(s)"},
			wantNotContain: []string{"used"},
		},
		{
			name:        "refused allocation reported",
			args:        []string{"alloc 2048"},
			wantContain: []string{"alloc 2048: no space", "1 operation(s) refused"},
		},
		{
			name:    "double free is an error",
			args:    []string{"alloc 64", "free #1", "free #1"},
			wantErr: true,
		},
		{
			name:    "parse error",
			args:    []string{"alloc many"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			noCoalesce = tt.noCoalesce

			output, err := captureOutput(t, func() error { return runMap(tt.args) })
			if (err != nil) != tt.wantErr {
				t.Fatalf("runMap() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			assertContains(t, output, tt.wantContain)
			assertNotContains(t, output, tt.wantNotContain)
		})
	}
}

func TestMapCommand_JSON(t *testing.T) {
	resetFlags()
	jsonOut = true

	output, err := captureOutput(t, func() error {
		return runMap([]string{"alloc 100", "alloc 24"})
	})
	require.NoError(t, err)
	assertJSON(t, output)

	var rows []blockRow
	require.NoError(t, json.Unmarshal([]byte(output), &rows))
	require.Equal(t, []blockRow{
		{Offset: 0, Ref: 16, Size: 104, InUse: true, Label: "#1"},
		{Offset: 120, Ref: 136, Size: 24, InUse: true, Label: "#2"},
		{Offset: 160, Ref: 176, Size: 848},
	}, rows)
}

func TestMapCommand_File(t *testing.T) {
	resetFlags()
	path := filepath.Join(t.TempDir(), "ops.txt")
	require.NoError(t, os.WriteFile(path, []byte("alloc 64\nalloc 64\n"), 0o600))
	mapFile = path

	output, err := captureOutput(t, func() error { return runMap([]string{"free #1"}) })
	require.NoError(t, err)
	assertContains(t, output, []string{"3 block(s)", "used  #2"})

	mapFile = filepath.Join(t.TempDir(), "missing.txt")
	_, err = captureOutput(t, func() error { return runMap(nil) })
	require.ErrorContains(t, err, "failed to open ops file")
}

func TestBlockBar(t *testing.T) {
	resetFlags()

	blocks := []arena.Block{
		{Off: 0, Size: 496, InUse: true},
		{Off: 512, Size: 496},
	}
	require.Equal(t, "################................", blockBar(blocks, 1024, 32))

	// Tiny blocks still get a cell.
	tiny := []arena.Block{{Off: 0, Size: 8, InUse: true}, {Off: 24, Size: 1000 - 16}}
	require.Equal(t, "#", blockBar(tiny, 1024, 8)[:1])
}
