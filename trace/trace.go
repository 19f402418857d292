// Package trace reads branch traces.
//
// A trace is a text file with one dynamic branch per line:
//
//	<core> <pc> <taken> [kind] [ghist]
//
// pc and ghist accept 0x-prefixed hex or decimal. taken is 0/1, T/N or
// true/false. kind is one of cbr (default), jmp, call, ret, ind. A '#'
// starts a comment and blank lines are skipped.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/m2bp/bp"
)

// ErrMalformed is wrapped by every parse error.
var ErrMalformed = errors.New("malformed trace line")

// Reader reads branches from a trace.
type Reader struct {
	scanner  *bufio.Scanner
	line     int
	numCores int
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithNumCores makes the reader reject branches of cores outside [0, n).
func WithNumCores(n int) ReaderOption {
	return func(r *Reader) {
		r.numCores = n
	}
}

// NewReader creates a Reader over r. Without WithNumCores any non-negative
// core is accepted.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	reader := &Reader{scanner: bufio.NewScanner(r)}

	for _, opt := range opts {
		opt(reader)
	}

	return reader
}

// Line returns the number of the line last read.
func (r *Reader) Line() int {
	return r.line
}

// Next returns the next branch. It returns io.EOF at the end of the trace.
func (r *Reader) Next() (bp.Branch, error) {
	for r.scanner.Scan() {
		r.line++

		text := r.scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}

		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		b, err := ParseLine(fields)
		if err != nil {
			return bp.Branch{}, fmt.Errorf("line %d: %w", r.line, err)
		}

		if r.numCores > 0 && b.Core >= r.numCores {
			return bp.Branch{}, fmt.Errorf("line %d: %w: core %d out of range [0, %d)",
				r.line, ErrMalformed, b.Core, r.numCores)
		}

		return b, nil
	}

	if err := r.scanner.Err(); err != nil {
		return bp.Branch{}, err
	}

	return bp.Branch{}, io.EOF
}

// ReadAll reads every remaining branch.
func (r *Reader) ReadAll() ([]bp.Branch, error) {
	var branches []bp.Branch

	for {
		b, err := r.Next()
		if errors.Is(err, io.EOF) {
			return branches, nil
		}
		if err != nil {
			return branches, err
		}
		branches = append(branches, b)
	}
}

// ParseLine parses the fields of one trace line.
func ParseLine(fields []string) (bp.Branch, error) {
	if len(fields) < 3 || len(fields) > 5 {
		return bp.Branch{}, fmt.Errorf("%w: want 3 to 5 fields, got %d",
			ErrMalformed, len(fields))
	}

	core, err := strconv.Atoi(fields[0])
	if err != nil || core < 0 {
		return bp.Branch{}, fmt.Errorf("%w: bad core %q", ErrMalformed, fields[0])
	}

	pc, err := strconv.ParseUint(fields[1], 0, 64)
	if err != nil {
		return bp.Branch{}, fmt.Errorf("%w: bad pc %q", ErrMalformed, fields[1])
	}

	taken, err := parseTaken(fields[2])
	if err != nil {
		return bp.Branch{}, err
	}

	b := bp.Branch{
		Core:  core,
		PC:    pc,
		Taken: taken,
		Kind:  bp.Conditional,
	}

	if len(fields) > 3 {
		b.Kind, err = bp.ParseKind(strings.ToLower(fields[3]))
		if err != nil {
			return bp.Branch{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	if len(fields) > 4 {
		hist, err := strconv.ParseUint(fields[4], 0, 32)
		if err != nil {
			return bp.Branch{}, fmt.Errorf("%w: bad global history %q",
				ErrMalformed, fields[4])
		}
		b.GlobalHistory = uint32(hist)
	}

	return b, nil
}

func parseTaken(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "t", "true":
		return true, nil
	case "0", "n", "false":
		return false, nil
	}
	return false, fmt.Errorf("%w: bad direction %q", ErrMalformed, s)
}

// Format renders a branch as a trace line.
func Format(b bp.Branch) string {
	taken := 0
	if b.Taken {
		taken = 1
	}
	return fmt.Sprintf("%d %#x %d %s %#x", b.Core, b.PC, taken, b.Kind, b.GlobalHistory)
}

// Writer writes branches in trace format.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write appends one branch.
func (w *Writer) Write(b bp.Branch) error {
	_, err := fmt.Fprintln(w.w, Format(b))
	return err
}

// Flush writes any buffered data.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
