// Package pattern provides the pattern table of a two-level adaptive
// predictor: one automaton state per possible history value.
package pattern

import (
	"fmt"

	"github.com/sarchlab/m2bp/bp/automata"
)

// MaxBits bounds the history width so that the table stays addressable in
// memory (2^24 one-byte entries).
const MaxBits = 24

// Table is a flat array of automaton states indexed directly by history.
type Table struct {
	bits    uint
	entries []automata.State
}

// New allocates a zeroed table with 2^bits entries.
func New(bits uint) (*Table, error) {
	if bits == 0 || bits > MaxBits {
		return nil, fmt.Errorf("pattern table width must be in [1, %d], got %d",
			MaxBits, bits)
	}

	return &Table{
		bits:    bits,
		entries: make([]automata.State, 1<<bits),
	}, nil
}

// Bits returns the history width the table is indexed by.
func (t *Table) Bits() uint {
	return t.bits
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Get returns the state stored for the history value.
func (t *Table) Get(history uint64) automata.State {
	t.mustBeInRange(history)
	return t.entries[history]
}

// Set stores the state for the history value.
func (t *Table) Set(history uint64, s automata.State) {
	t.mustBeInRange(history)
	t.entries[history] = s
}

// Reset zeroes every entry.
func (t *Table) Reset() {
	clear(t.entries)
}

// Snapshot returns a copy of all entries.
func (t *Table) Snapshot() []automata.State {
	out := make([]automata.State, len(t.entries))
	copy(out, t.entries)
	return out
}

// A history outside the table means the history register table failed to
// mask its output.
func (t *Table) mustBeInRange(history uint64) {
	if history >= uint64(len(t.entries)) {
		panic(fmt.Sprintf("pattern table: history %#x out of range for %d-bit table",
			history, t.bits))
	}
}
