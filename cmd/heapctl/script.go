package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/joshuapare/heapkit/arena/alloc"
)

// opKind names one scripted allocator call.
type opKind string

const (
	opAlloc   opKind = "alloc"
	opFree    opKind = "free"
	opRealloc opKind = "realloc"
)

// op is one parsed script line:
//
//	alloc N        allocate N bytes; the result becomes #1, #2, ...
//	free #i        free the i-th allocation
//	realloc #i N   resize the i-th allocation to N bytes
type op struct {
	kind   opKind
	target int // 1-based allocation label, 0 for alloc
	size   int
}

func (o op) String() string {
	switch o.kind {
	case opAlloc:
		return fmt.Sprintf("alloc %d", o.size)
	case opFree:
		return fmt.Sprintf("free #%d", o.target)
	default:
		return fmt.Sprintf("realloc #%d %d", o.target, o.size)
	}
}

func parseOp(line string) (op, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return op{}, errors.New("empty operation")
	}

	switch opKind(strings.ToLower(fields[0])) {
	case opAlloc:
		if len(fields) != 2 {
			return op{}, fmt.Errorf("%q: want \"alloc N\"", line)
		}
		size, err := parseSize(fields[1])
		if err != nil {
			return op{}, fmt.Errorf("%q: %w", line, err)
		}
		return op{kind: opAlloc, size: size}, nil

	case opFree:
		if len(fields) != 2 {
			return op{}, fmt.Errorf("%q: want \"free #i\"", line)
		}
		target, err := parseLabel(fields[1])
		if err != nil {
			return op{}, fmt.Errorf("%q: %w", line, err)
		}
		return op{kind: opFree, target: target}, nil

	case opRealloc:
		if len(fields) != 3 {
			return op{}, fmt.Errorf("%q: want \"realloc #i N\"", line)
		}
		target, err := parseLabel(fields[1])
		if err != nil {
			return op{}, fmt.Errorf("%q: %w", line, err)
		}
		size, err := parseSize(fields[2])
		if err != nil {
			return op{}, fmt.Errorf("%q: %w", line, err)
		}
		return op{kind: opRealloc, target: target, size: size}, nil
	}
	return op{}, fmt.Errorf("%q: unknown operation %q", line, fields[0])
}

func parseSize(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n, nil
}

func parseLabel(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid allocation label %q (want #1, #2, ...)", s)
	}
	return n, nil
}

// readOps parses one op per line from r, skipping blank lines and # comments.
func readOps(r io.Reader) ([]op, error) {
	var ops []op
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		o, err := parseOp(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		ops = append(ops, o)
	}
	return ops, sc.Err()
}

// parseArgs parses each command-line argument as one op.
func parseArgs(args []string) ([]op, error) {
	ops := make([]op, 0, len(args))
	for _, a := range args {
		o, err := parseOp(a)
		if err != nil {
			return nil, err
		}
		ops = append(ops, o)
	}
	return ops, nil
}

// session replays ops against an allocator and remembers which label owns
// which ref.
type session struct {
	fa     *alloc.Allocator
	refs   []alloc.Ref // refs[i] is label #i+1; NilRef once freed or failed
	failed int         // allocations refused for lack of space
}

func (s *session) apply(o op) error {
	switch o.kind {
	case opAlloc:
		ref, _, err := s.fa.Alloc(o.size)
		if errors.Is(err, alloc.ErrNoSpace) {
			s.failed++
			printInfo("%s: no space\n", o)
			err = nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", o, err)
		}
		s.refs = append(s.refs, ref)
		printVerbose("%s -> #%d at 0x%X\n", o, len(s.refs), uint64(ref))
		return nil

	case opFree:
		ref, err := s.lookup(o.target)
		if err != nil {
			return fmt.Errorf("%s: %w", o, err)
		}
		if err := s.fa.Free(ref); err != nil {
			return fmt.Errorf("%s: %w", o, err)
		}
		s.refs[o.target-1] = alloc.NilRef
		printVerbose("%s\n", o)
		return nil

	default:
		ref, err := s.lookup(o.target)
		if err != nil {
			return fmt.Errorf("%s: %w", o, err)
		}
		newRef, _, err := s.fa.Realloc(ref, o.size)
		if errors.Is(err, alloc.ErrNoSpace) {
			s.failed++
			printInfo("%s: no space, #%d unchanged\n", o, o.target)
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", o, err)
		}
		s.refs[o.target-1] = newRef
		printVerbose("%s -> 0x%X\n", o, uint64(newRef))
		return nil
	}
}

func (s *session) lookup(label int) (alloc.Ref, error) {
	if label > len(s.refs) {
		return alloc.NilRef, fmt.Errorf("no allocation #%d yet", label)
	}
	ref := s.refs[label-1]
	if ref == alloc.NilRef {
		return alloc.NilRef, fmt.Errorf("allocation #%d is not live", label)
	}
	return ref, nil
}

// labels maps live refs back to their #i label.
func (s *session) labels() map[alloc.Ref]int {
	m := make(map[alloc.Ref]int, len(s.refs))
	for i, ref := range s.refs {
		if ref != alloc.NilRef {
			m[ref] = i + 1
		}
	}
	return m
}

func (s *session) run(ops []op) error {
	for _, o := range ops {
		if err := s.apply(o); err != nil {
			return err
		}
	}
	return nil
}
