// Command benchmark_parser turns `go test -bench` output for the allocator
// into a markdown report comparing the Default and Legacy configurations.
//
//	go test -run '^$' -bench . -benchmem ./arena/alloc | go run ./scripts -output BENCH.md
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult represents a parsed benchmark result.
type BenchmarkResult struct {
	Name        string
	Workload    string // Benchmark name without the configuration suffix
	Config      string // "Default", "Legacy", ...
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

// ComparisonResult pairs the baseline and candidate runs of one workload.
type ComparisonResult struct {
	Workload      string
	CandidateNs   float64
	BaselineNs    float64
	Speedup       float64 // BaselineNs / CandidateNs
	CandidateOnly bool
}

var (
	inputFile  = flag.String("input", "", "Input file with benchmark output (stdin if not specified)")
	outputFile = flag.String("output", "", "Output markdown file (stdout if not specified)")
	baseline   = flag.String("baseline", "Legacy", "Configuration treated as the baseline")
	candidate  = flag.String("candidate", "Default", "Configuration compared against the baseline")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

// BenchmarkAllocFree_Churn/Default-8    1000000    112.0 ns/op    0 B/op    0 allocs/op
var benchmarkRegex = regexp.MustCompile(
	`^(Benchmark\S+)\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+([\d.]+)\s+B/op)?(?:\s+([\d.]+)\s+allocs/op)?`,
)

func main() {
	flag.Parse()

	var in io.Reader = os.Stdin
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	results := parseBenchmarks(bufio.NewScanner(in))
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d benchmark results\n", len(results))
	}

	comparisons := generateComparisons(results, *baseline, *candidate)
	report := generateMarkdownReport(comparisons, *baseline, *candidate, time.Now())

	if *outputFile == "" {
		fmt.Fprint(os.Stdout, report)
		return
	}
	if err := os.WriteFile(*outputFile, []byte(report), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
		os.Exit(1)
	}
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
	}
}

func parseBenchmarks(scanner *bufio.Scanner) []BenchmarkResult {
	var results []BenchmarkResult

	for scanner.Scan() {
		line := scanner.Text()

		// Accept `go test -json` events as well as plain output.
		var event struct{ Output string }
		if err := json.Unmarshal([]byte(line), &event); err == nil && event.Output != "" {
			line = event.Output
		}

		matches := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}

		name := matches[1]
		iterations, _ := strconv.Atoi(matches[2])
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)

		var bytesPerOp, allocsPerOp int64
		if matches[4] != "" {
			bytesPerOp, _ = strconv.ParseInt(matches[4], 10, 64)
		}
		if matches[5] != "" {
			allocsPerOp, _ = strconv.ParseInt(matches[5], 10, 64)
		}

		workload, config := splitName(name)
		results = append(results, BenchmarkResult{
			Name:        name,
			Workload:    workload,
			Config:      config,
			Iterations:  iterations,
			NsPerOp:     nsPerOp,
			BytesPerOp:  bytesPerOp,
			AllocsPerOp: allocsPerOp,
		})
	}

	return results
}

// splitName maps "Benchmark_AllocFree_Churn/Legacy-8" to
// ("AllocFree_Churn", "Legacy"). Names without a sub-benchmark have no config.
func splitName(name string) (workload, config string) {
	name = strings.TrimPrefix(name, "Benchmark")
	name = strings.TrimPrefix(name, "_")

	last := name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		workload, last = name[:i], name[i+1:]
	}
	// Drop the -GOMAXPROCS suffix.
	if i := strings.LastIndex(last, "-"); i > 0 {
		if _, err := strconv.Atoi(last[i+1:]); err == nil {
			last = last[:i]
		}
	}
	if workload == "" {
		return last, ""
	}
	return workload, last
}

func generateComparisons(results []BenchmarkResult, base, cand string) []ComparisonResult {
	grouped := make(map[string]map[string]BenchmarkResult)
	for _, r := range results {
		if grouped[r.Workload] == nil {
			grouped[r.Workload] = make(map[string]BenchmarkResult)
		}
		grouped[r.Workload][r.Config] = r
	}

	var comparisons []ComparisonResult
	for workload, configs := range grouped {
		c, hasCand := configs[cand]
		b, hasBase := configs[base]
		switch {
		case hasCand && hasBase:
			comparisons = append(comparisons, ComparisonResult{
				Workload:    workload,
				CandidateNs: c.NsPerOp,
				BaselineNs:  b.NsPerOp,
				Speedup:     b.NsPerOp / c.NsPerOp,
			})
		case hasCand:
			comparisons = append(comparisons, ComparisonResult{
				Workload:      workload,
				CandidateNs:   c.NsPerOp,
				CandidateOnly: true,
			})
		}
	}

	sort.Slice(comparisons, func(i, j int) bool {
		return comparisons[i].Workload < comparisons[j].Workload
	})
	return comparisons
}

func generateMarkdownReport(comparisons []ComparisonResult, base, cand string, now time.Time) string {
	var sb strings.Builder

	sb.WriteString("# Allocator Benchmark Report\n\n")
	fmt.Fprintf(&sb, "Generated: %s\n\n", now.Format("2006-01-02 15:04:05"))

	faster, compared := 0, 0
	for _, c := range comparisons {
		if c.CandidateOnly {
			continue
		}
		compared++
		if c.Speedup > 1.0 {
			faster++
		}
	}
	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- **Workloads**: %d\n", len(comparisons))
	fmt.Fprintf(&sb, "- **%s faster than %s**: %d of %d\n\n", cand, base, faster, compared)

	sb.WriteString("## Results\n\n")
	fmt.Fprintf(&sb, "| Workload | %s (ns/op) | %s (ns/op) | Speedup |\n", cand, base)
	sb.WriteString("|----------|------------|------------|---------|\n")
	for _, c := range comparisons {
		if c.CandidateOnly {
			fmt.Fprintf(&sb, "| %s | %s | *N/A* | *%s only* |\n", c.Workload, formatNumber(c.CandidateNs), cand)
			continue
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %.2fx |\n",
			c.Workload, formatNumber(c.CandidateNs), formatNumber(c.BaselineNs), c.Speedup)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Speedup > 1.0 means %s is faster.\n", cand)

	return sb.String()
}

func formatNumber(n float64) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.2fM", n/1000000)
	} else if n >= 1000 {
		return fmt.Sprintf("%.1fK", n/1000)
	}
	return fmt.Sprintf("%.0f", n)
}
