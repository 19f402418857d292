package trace

import (
	"fmt"
	"math/rand/v2"

	"github.com/sarchlab/m2bp/bp"
)

// Pattern describes the direction sequence of one synthetic branch.
type Pattern struct {
	// PC of the branch.
	PC uint64
	// Period > 0 makes the branch a loop back-edge: taken Period-1 times,
	// then not taken once.
	Period int
	// Bias is the probability of taken for a branch without a period.
	Bias float64
}

// Synthesizer interleaves synthetic branches round-robin and tracks a global
// history as a simulator front end would.
type Synthesizer struct {
	core     int
	patterns []Pattern
	counts   []int
	rng      *rand.Rand
	history  uint32
	next     int
}

// NewSynthesizer creates a deterministic generator for the patterns.
func NewSynthesizer(core int, seed uint64, patterns ...Pattern) (*Synthesizer, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("at least one pattern is required")
	}
	for _, p := range patterns {
		if p.Period < 0 || p.Bias < 0 || p.Bias > 1 {
			return nil, fmt.Errorf("invalid pattern %+v", p)
		}
	}

	return &Synthesizer{
		core:     core,
		patterns: patterns,
		counts:   make([]int, len(patterns)),
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Next returns the next branch.
func (s *Synthesizer) Next() bp.Branch {
	i := s.next
	s.next = (s.next + 1) % len(s.patterns)

	p := s.patterns[i]
	var taken bool
	if p.Period > 0 {
		taken = s.counts[i]%p.Period != p.Period-1
	} else {
		taken = s.rng.Float64() < p.Bias
	}
	s.counts[i]++

	b := bp.Branch{
		Core:          s.core,
		PC:            p.PC,
		GlobalHistory: s.history,
		Taken:         taken,
		Kind:          bp.Conditional,
	}

	s.history <<= 1
	if taken {
		s.history |= 1
	}

	return b
}

// Generate returns the next n branches.
func (s *Synthesizer) Generate(n int) []bp.Branch {
	out := make([]bp.Branch, n)
	for i := range out {
		out[i] = s.Next()
	}
	return out
}
