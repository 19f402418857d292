// Package twolevel implements a two-level adaptive branch direction predictor.
//
// The first level is a history register table that records the recent
// outcomes of each branch address. The second level is a pattern table
// indexed by that history, whose entries are small automata that learn
// which direction follows each history pattern.
package twolevel

import (
	"fmt"

	"github.com/sarchlab/m2bp/bp"
)

// Predictor owns one Core per simulated core and routes branches to them.
type Predictor struct {
	config *Config
	cores  []*Core
}

// New validates the config and allocates the tables of every core.
func New(config *Config) (*Predictor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Predictor{
		config: config.Clone(),
		cores:  make([]*Core, config.NumCores),
	}

	for i := range p.cores {
		core, err := NewCore(p.config)
		if err != nil {
			return nil, fmt.Errorf("core %d: %w", i, err)
		}
		p.cores[i] = core
	}

	return p, nil
}

// Config returns a copy of the config the predictor was built with.
func (p *Predictor) Config() *Config {
	return p.config.Clone()
}

// NumCores returns the number of cores.
func (p *Predictor) NumCores() int {
	return len(p.cores)
}

// Core returns the state of core i.
func (p *Predictor) Core(i int) *Core {
	if i < 0 || i >= len(p.cores) {
		panic(fmt.Sprintf("twolevel: core %d out of range [0, %d)", i, len(p.cores)))
	}
	return p.cores[i]
}

// Predict returns the predicted direction of b.
func (p *Predictor) Predict(b bp.Branch) bool {
	return p.Core(b.Core).Predict(b.PC)
}

// SpeculativeUpdate returns the direction assumed for b on a speculative
// path, which is always taken.
func (p *Predictor) SpeculativeUpdate(b bp.Branch) bool {
	return p.Core(b.Core).SpeculativeUpdate(b.PC)
}

// Update trains the core of b with b.Taken. Branches that are not
// conditional are ignored.
func (p *Predictor) Update(b bp.Branch) {
	if !b.Kind.IsConditional() {
		return
	}
	p.Core(b.Core).Update(b.PC, b.Taken)
}

// Reset clears the tables of every core.
func (p *Predictor) Reset() {
	for _, c := range p.cores {
		c.Reset()
	}
}
