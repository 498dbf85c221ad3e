package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/arena"
	"github.com/joshuapare/heapkit/arena/alloc"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	noColor bool

	// Allocator flags
	capacity   int
	policy     string
	noCoalesce bool
)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Exercise and inspect the heapkit arena allocator",
	Long: `heapctl drives the heapkit allocator from the command line. It runs the
numbered acceptance scenarios, stress-tests an arena with random workloads,
and prints block maps and statistics for scripted allocation sequences.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.PersistentFlags().IntVar(&capacity, "capacity", 1024, "Arena capacity in bytes (multiple of 8)")
	rootCmd.PersistentFlags().StringVar(&policy, "policy", "best-fit", "Fit policy: best-fit or first-fit")
	rootCmd.PersistentFlags().BoolVar(&noCoalesce, "no-coalesce", false, "Do not merge adjacent free blocks")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// allocOptions builds allocator options from the global flags.
// Diagnostics go to stderr; debug level with --verbose, errors only with --quiet.
func allocOptions() (*alloc.Options, error) {
	p, err := alloc.ParsePolicy(policy)
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}

	return &alloc.Options{
		Name:     "heapctl",
		Policy:   p,
		Coalesce: !noCoalesce,
		Logger:   slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}, nil
}

// openAllocator creates an arena of --capacity bytes and an allocator over it.
// The returned func releases the arena.
func openAllocator() (*alloc.Allocator, func(), error) {
	opts, err := allocOptions()
	if err != nil {
		return nil, nil, err
	}
	a, err := arena.New(capacity)
	if err != nil {
		return nil, nil, err
	}
	fa, err := alloc.New(a, opts)
	if err != nil {
		_ = a.Close()
		return nil, nil, err
	}
	printVerbose("Arena: %d bytes, policy=%s, coalesce=%v\n", capacity, opts.Policy, opts.Coalesce)
	return fa, func() { _ = a.Close() }, nil
}
