// Package bimodal provides the baseline predictors two-level adaptive
// prediction is compared against: a bimodal table of 2-bit saturating
// counters indexed by PC, and its gshare variant that XORs the global
// history into the index.
package bimodal

import (
	"fmt"

	"github.com/sarchlab/m2bp/bp"
)

// Config holds configuration for the baseline predictor.
type Config struct {
	// NumCores is the number of cores with private tables. Default is 1.
	NumCores int `json:"num_cores"`
	// BHTSize is the number of entries in the Branch History Table.
	// Must be a power of 2. Default is 4096.
	BHTSize uint32 `json:"bht_size"`
	// GlobalHistoryLength is the number of global history bits XORed into
	// the index. Zero gives a pure bimodal predictor; anything else a gshare
	// predictor. Must not exceed 32 or log2(BHTSize).
	GlobalHistoryLength uint32 `json:"global_history_length"`
}

// DefaultConfig returns a bimodal configuration.
func DefaultConfig() Config {
	return Config{
		NumCores: 1,
		BHTSize:  4096,
	}
}

// DefaultGshareConfig returns a gshare configuration with 12 history bits.
func DefaultGshareConfig() Config {
	return Config{
		NumCores:            1,
		BHTSize:             4096,
		GlobalHistoryLength: 12,
	}
}

// Counter states: 0=Strongly Not Taken, 1=Weakly Not Taken,
// 2=Weakly Taken, 3=Strongly Taken.
const (
	counterMax  = 3
	counterInit = 2 // weakly taken
)

// Predictor implements a 2-bit saturating counter (bimodal) predictor, with
// optional gshare indexing.
type Predictor struct {
	// Branch History Table per core
	bht [][]uint8

	bhtMask  uint32
	histMask uint32
}

// New creates a baseline predictor with the given configuration. Zero sizes
// are replaced by the defaults.
func New(config Config) (*Predictor, error) {
	numCores := config.NumCores
	bhtSize := config.BHTSize

	// Default sizes if not specified
	if numCores == 0 {
		numCores = 1
	}
	if bhtSize == 0 {
		bhtSize = 4096
	}

	if numCores < 0 {
		return nil, fmt.Errorf("num_cores must be > 0, got %d", numCores)
	}
	if bhtSize&(bhtSize-1) != 0 {
		return nil, fmt.Errorf("bht_size must be a power of 2, got %d", bhtSize)
	}
	if config.GlobalHistoryLength > 32 || (uint64(1)<<config.GlobalHistoryLength) > uint64(bhtSize) {
		return nil, fmt.Errorf("global_history_length %d does not fit a %d-entry table",
			config.GlobalHistoryLength, bhtSize)
	}

	p := &Predictor{
		bht:      make([][]uint8, numCores),
		bhtMask:  bhtSize - 1,
		histMask: uint32((uint64(1) << config.GlobalHistoryLength) - 1),
	}

	for i := range p.bht {
		p.bht[i] = make([]uint8, bhtSize)
	}
	p.Reset()

	return p, nil
}

// index computes the BHT index for a branch.
func (p *Predictor) index(b bp.Branch) uint32 {
	// Use lower bits of PC (excluding alignment bits)
	pc := uint32(b.PC >> 2)
	return (pc ^ (b.GlobalHistory & p.histMask)) & p.bhtMask
}

func (p *Predictor) table(core int) []uint8 {
	if core < 0 || core >= len(p.bht) {
		panic(fmt.Sprintf("bimodal: core %d out of range [0, %d)", core, len(p.bht)))
	}
	return p.bht[core]
}

// Predict returns taken if the counter is 2 or 3.
func (p *Predictor) Predict(b bp.Branch) bool {
	return p.table(b.Core)[p.index(b)] >= 2
}

// SpeculativeUpdate returns the counter prediction. The counters are only
// trained on resolution.
func (p *Predictor) SpeculativeUpdate(b bp.Branch) bool {
	return p.Predict(b)
}

// Update updates the 2-bit saturating counter of a conditional branch.
func (p *Predictor) Update(b bp.Branch) {
	if !b.Kind.IsConditional() {
		return
	}

	bht := p.table(b.Core)
	idx := p.index(b)
	counter := bht[idx]

	if b.Taken {
		if counter < counterMax {
			bht[idx] = counter + 1
		}
	} else {
		if counter > 0 {
			bht[idx] = counter - 1
		}
	}
}

// Counter returns the raw counter used for the branch.
func (p *Predictor) Counter(b bp.Branch) uint8 {
	return p.table(b.Core)[p.index(b)]
}

// Reset sets every counter back to weakly taken.
func (p *Predictor) Reset() {
	for _, bht := range p.bht {
		for i := range bht {
			bht[i] = counterInit
		}
	}
}
