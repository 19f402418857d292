package twolevel

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/m2bp/bp/automata"
	"github.com/sarchlab/m2bp/bp/hrt"
	"github.com/sarchlab/m2bp/bp/pattern"
)

// Config holds the parameters of a two-level adaptive predictor. All fields
// are fixed for the lifetime of the predictor built from it.
type Config struct {
	// NumCores is the number of cores or hardware threads. Each gets private
	// tables. Default: 1.
	NumCores int `json:"num_cores"`

	// HRT selects the history register table backend: "hashed",
	// "associative" or "ideal". Default: associative.
	HRT hrt.Kind `json:"hrt"`

	// HistoryBits is the history width W. The pattern table has 2^W entries.
	// Default: 12.
	HistoryBits uint `json:"history_bits"`

	// HRTSize is the number of hashed entries, or the total number of
	// associative entries. Ignored by the ideal table. Default: 512.
	HRTSize int `json:"hrt_size"`

	// Associativity is the number of ways per set of the associative table.
	// Default: 4.
	Associativity int `json:"associativity"`

	// Automaton selects the pattern table automaton: "last_outcome", "a1",
	// "a2", "a3" or "a4". Default: a2.
	Automaton automata.Policy `json:"automaton"`
}

// DefaultConfig returns a 512-entry 4-way associative HRT with 12 bits of
// history and saturating counters.
func DefaultConfig() *Config {
	return &Config{
		NumCores:      1,
		HRT:           hrt.KindAssociative,
		HistoryBits:   12,
		HRTSize:       512,
		Associativity: 4,
		Automaton:     automata.A2,
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read predictor config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse predictor config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize predictor config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write predictor config file: %w", err)
	}

	return nil
}

// HRTConfig returns the history register table part of the config.
func (c *Config) HRTConfig() hrt.Config {
	return hrt.Config{
		Kind:          c.HRT,
		HistoryBits:   c.HistoryBits,
		Size:          c.HRTSize,
		Associativity: c.Associativity,
	}
}

// Validate checks that the config describes a buildable predictor.
func (c *Config) Validate() error {
	if c.NumCores <= 0 {
		return fmt.Errorf("num_cores must be > 0")
	}
	if c.HistoryBits > pattern.MaxBits {
		return fmt.Errorf("history_bits must be <= %d", pattern.MaxBits)
	}
	if err := c.HRTConfig().Validate(); err != nil {
		return fmt.Errorf("invalid history register table: %w", err)
	}
	if _, err := automata.New(c.Automaton); err != nil {
		return fmt.Errorf("invalid automaton: %w", err)
	}
	return nil
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
