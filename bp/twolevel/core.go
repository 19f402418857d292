package twolevel

import (
	"fmt"

	"github.com/sarchlab/m2bp/bp/automata"
	"github.com/sarchlab/m2bp/bp/hrt"
	"github.com/sarchlab/m2bp/bp/pattern"
)

// Core is the predictor state of one core: a history register table, a
// pattern table and the automaton interpreting its entries.
type Core struct {
	history   hrt.Table
	patterns  *pattern.Table
	automaton automata.Automaton
}

// NewCore builds the tables of one core from the config.
func NewCore(config *Config) (*Core, error) {
	history, err := hrt.New(config.HRTConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create history register table: %w", err)
	}

	patterns, err := pattern.New(config.HistoryBits)
	if err != nil {
		return nil, fmt.Errorf("failed to create pattern table: %w", err)
	}

	automaton, err := automata.New(config.Automaton)
	if err != nil {
		return nil, err
	}

	return &Core{
		history:   history,
		patterns:  patterns,
		automaton: automaton,
	}, nil
}

// Predict returns the predicted direction of the branch at pc. It does not
// change any history or pattern state and may be called repeatedly.
func (c *Core) Predict(pc uint64) bool {
	h := c.history.Peek(pc)
	return c.automaton.Predict(c.patterns.Get(h))
}

// SpeculativeUpdate returns the direction assumed for a branch executed on a
// speculative path. It is always taken and touches no table.
func (c *Core) SpeculativeUpdate(pc uint64) bool {
	return true
}

// Update trains the core with the resolved direction of the branch at pc.
//
// The pattern table entry is selected by the history read before the branch
// outcome is shifted in, so the entry that made the prediction is the one
// that learns.
func (c *Core) Update(pc uint64, taken bool) {
	h := c.history.Get(pc)
	next := c.automaton.Transition(c.patterns.Get(h), taken)
	c.patterns.Set(h, next)
	c.history.Update(pc, taken)
}

// HRT returns the history register table of the core.
func (c *Core) HRT() hrt.Table {
	return c.history
}

// PatternTable returns the pattern table of the core.
func (c *Core) PatternTable() *pattern.Table {
	return c.patterns
}

// Automaton returns the automaton of the core.
func (c *Core) Automaton() automata.Automaton {
	return c.automaton
}

// Reset clears both tables.
func (c *Core) Reset() {
	c.history.Reset()
	c.patterns.Reset()
}
