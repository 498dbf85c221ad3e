package alloc

import (
	"fmt"
	"log/slog"
	"strings"
)

// FitPolicy selects how a free block is chosen for a request.
type FitPolicy uint8

const (
	// BestFit takes the smallest free block that fits. The min-heap root is
	// checked first, so the common case costs O(log n).
	BestFit FitPolicy = iota

	// FirstFit takes the first free block that fits, scanning index slots in
	// storage order rather than size order.
	FirstFit
)

func (p FitPolicy) String() string {
	switch p {
	case BestFit:
		return "best-fit"
	case FirstFit:
		return "first-fit"
	default:
		return fmt.Sprintf("FitPolicy(%d)", uint8(p))
	}
}

// ParsePolicy maps "best"/"best-fit" and "first"/"first-fit" to a FitPolicy.
func ParsePolicy(s string) (FitPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "best", "best-fit", "bestfit":
		return BestFit, nil
	case "first", "first-fit", "firstfit":
		return FirstFit, nil
	}
	return 0, fmt.Errorf("alloc: unknown fit policy %q (want best-fit or first-fit)", s)
}

// Options configures an Allocator.
type Options struct {
	// Name for this configuration (for reports)
	Name string

	// Policy picks the free block serving each request.
	Policy FitPolicy

	// Coalesce merges a freed block with free address-adjacent neighbours.
	// When false, freed blocks are reinserted as-is and adjacent free blocks
	// stay separate.
	Coalesce bool

	// Logger receives diagnostics such as allocation exhaustion.
	// nil means slog.Default().
	Logger *slog.Logger
}

// Predefined configurations.
var (
	// DefaultOptions: best fit with coalescing.
	DefaultOptions = Options{
		Name:     "Default",
		Policy:   BestFit,
		Coalesce: true,
	}

	// LegacyOptions reproduces the classic behaviour: first fit over index
	// slots and no merging of adjacent free blocks.
	LegacyOptions = Options{
		Name:     "Legacy",
		Policy:   FirstFit,
		Coalesce: false,
	}
)

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
