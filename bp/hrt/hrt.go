// Package hrt provides history register tables, which map a branch address to
// the bit string of its most recent outcomes.
//
// Three backends share the Table interface:
//   - Hashed is a direct-mapped array without tags, so aliasing addresses
//     share one history.
//   - Associative is a set-associative cache with true LRU replacement.
//   - Ideal keeps one unbounded history per address and is only meant as an
//     upper bound when comparing the other two.
package hrt

import (
	"fmt"
	"strings"
)

// MaxHistoryBits is the widest history a table may report.
const MaxHistoryBits = 24

// Table is a history register table.
type Table interface {
	// Get returns the low HistoryBits bits of the history recorded for addr,
	// or 0 if addr has never been updated. No history value changes.
	Get(addr uint64) uint64

	// Peek returns the same value as Get but leaves replacement state
	// untouched, so predictions that are never resolved leave no trace.
	Peek(addr uint64) uint64

	// Update shifts the outcome into the history of addr.
	Update(addr uint64, taken bool)

	// HistoryBits returns the width of the values returned by Get.
	HistoryBits() uint

	// Reset drops every recorded history.
	Reset()
}

// Kind selects a history register table backend.
type Kind uint8

// Backends.
const (
	KindHashed Kind = iota
	KindAssociative
	KindIdeal
)

var kindNames = [...]string{
	KindHashed:      "hashed",
	KindAssociative: "associative",
	KindIdeal:       "ideal",
}

// String returns the configuration name of the backend.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind converts a configuration name into a Kind.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown history register table %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if int(k) >= len(kindNames) {
		return nil, fmt.Errorf("unknown history register table %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Config describes a history register table.
type Config struct {
	// Kind selects the backend.
	Kind Kind
	// HistoryBits is the width W of the reported history.
	HistoryBits uint
	// Size is the number of entries of a hashed table, or the total number
	// of entries (sets x ways) of an associative table. Ignored by Ideal.
	Size int
	// Associativity is the number of ways per set. Associative only.
	Associativity int
}

// Validate checks the configuration for the selected backend.
func (c Config) Validate() error {
	if c.HistoryBits == 0 || c.HistoryBits > MaxHistoryBits {
		return fmt.Errorf("history bits must be in [1, %d], got %d",
			MaxHistoryBits, c.HistoryBits)
	}

	switch c.Kind {
	case KindHashed:
		if c.Size <= 0 {
			return fmt.Errorf("hashed table size must be > 0, got %d", c.Size)
		}
	case KindAssociative:
		if c.Associativity <= 0 {
			return fmt.Errorf("associativity must be > 0, got %d", c.Associativity)
		}
		if c.Size < c.Associativity || c.Size%c.Associativity != 0 {
			return fmt.Errorf("associative table size %d must be a positive multiple of associativity %d",
				c.Size, c.Associativity)
		}
		numSets := c.Size / c.Associativity
		if numSets&(numSets-1) != 0 {
			return fmt.Errorf("associative table must have a power-of-two number of sets, got %d",
				numSets)
		}
	case KindIdeal:
	default:
		return fmt.Errorf("unknown history register table %d", uint8(c.Kind))
	}

	return nil
}

// New builds the backend selected by the configuration.
func New(c Config) (Table, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	switch c.Kind {
	case KindHashed:
		return NewHashed(c.Size, c.HistoryBits), nil
	case KindAssociative:
		return NewAssociative(c.Size/c.Associativity, c.Associativity, c.HistoryBits), nil
	default:
		return NewIdeal(c.HistoryBits), nil
	}
}

func mask(bits uint) uint64 {
	return (uint64(1) << bits) - 1
}

func shiftIn(history uint64, taken bool) uint64 {
	history <<= 1
	if taken {
		history |= 1
	}
	return history
}
