package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/arena"
)

var (
	mapFile  string
	mapWidth int
)

var (
	// Block map palette
	usedColor   = lipgloss.Color("#04B575")
	freeColor   = lipgloss.Color("#666666")
	headerColor = lipgloss.Color("#7D56F4")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(headerColor)

	usedStyle = lipgloss.NewStyle().
			Foreground(usedColor)

	freeStyle = lipgloss.NewStyle().
			Foreground(freeColor)

	barStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#383838"))
)

func init() {
	cmd := newMapCmd()
	cmd.Flags().StringVarP(&mapFile, "file", "f", "", "Read operations from file (- for stdin)")
	cmd.Flags().IntVar(&mapWidth, "width", 64, "Width of the block bar in cells")
	rootCmd.AddCommand(cmd)
}

func newMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map [op...]",
		Short: "Replay operations and print the resulting block map",
		Long: `The map command replays a sequence of allocator operations against a fresh
arena and prints every block in address order.

Operations:
  alloc N        allocate N bytes; results are labelled #1, #2, ...
  free #i        free allocation #i
  realloc #i N   resize allocation #i to N bytes

Example:
  heapctl map "alloc 128" "alloc 128" "free #1"
  heapctl map --capacity 4096 --policy first-fit -f ops.txt
  heapctl map "alloc 64" --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(args)
		},
	}
	return cmd
}

// loadOps collects operations from --file and the positional arguments.
func loadOps(file string, args []string) ([]op, error) {
	var ops []op
	if file != "" {
		var r io.Reader = os.Stdin
		if file != "-" {
			f, err := os.Open(file)
			if err != nil {
				return nil, fmt.Errorf("failed to open ops file: %w", err)
			}
			defer f.Close()
			r = f
		}
		fileOps, err := readOps(r)
		if err != nil {
			return nil, err
		}
		ops = append(ops, fileOps...)
	}
	argOps, err := parseArgs(args)
	if err != nil {
		return nil, err
	}
	return append(ops, argOps...), nil
}

// blockRow is the JSON shape of one block.
type blockRow struct {
	Offset int    `json:"offset"`
	Ref    uint64 `json:"ref"`
	Size   int    `json:"size"`
	InUse  bool   `json:"in_use"`
	Label  string `json:"label,omitempty"`
}

func runMap(args []string) error {
	ops, err := loadOps(mapFile, args)
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

	blocks, err := fa.Arena().Collect()
	if err != nil {
		return err
	}
	labels := s.labels()

	rows := make([]blockRow, 0, len(blocks))
	for _, b := range blocks {
		row := blockRow{Offset: b.Off, Ref: uint64(b.Ref()), Size: b.Size, InUse: b.InUse}
		if n, ok := labels[b.Ref()]; ok {
			row.Label = fmt.Sprintf("#%d", n)
		}
		rows = append(rows, row)
	}

	if jsonOut {
		return printJSON(rows)
	}

	printInfo("%s\n", render(titleStyle, fmt.Sprintf("Arena %d bytes, %d block(s)", fa.Arena().Capacity(), len(blocks))))
	printInfo("%s\n", render(barStyle, blockBar(blocks, fa.Arena().Capacity(), mapWidth)))
	for _, r := range rows {
		state, style := "free", freeStyle
		if r.InUse {
			state, style = "used", usedStyle
		}
		printInfo("  0x%04X  ref=0x%04X  %6d  %s  %s\n",
			r.Offset, r.Ref, r.Size, render(style, fmt.Sprintf("%-4s", state)), r.Label)
	}
	if s.failed > 0 {
		printInfo("%d operation(s) refused for lack of space\n", s.failed)
	}
	return nil
}

// render applies style unless colour is disabled.
func render(style lipgloss.Style, s string) string {
	if noColor {
		return s
	}
	return style.Render(s)
}

// blockBar draws the arena as width cells: '#' for used bytes, '.' for free
// bytes. Every block gets at least one cell so small blocks stay visible.
func blockBar(blocks []arena.Block, capacity, width int) string {
	if width < 1 {
		width = 1
	}
	var sb strings.Builder
	for _, b := range blocks {
		cells := max(1, b.Span()*width/capacity)
		if b.InUse {
			sb.WriteString(render(usedStyle, strings.Repeat("#", cells)))
		} else {
			sb.WriteString(render(freeStyle, strings.Repeat(".", cells)))
		}
	}
	return sb.String()
}
