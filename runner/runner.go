// Package runner drives a direction predictor over a stream of branches the
// way a simulator front end would, and measures its accuracy.
package runner

import (
	"errors"
	"io"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/m2bp/bp"
)

// HookPosBranchResolved marks the resolution of a branch. The hook item is a
// Resolution.
var HookPosBranchResolved = &sim.HookPos{Name: "BranchResolved"}

// Source produces branches. trace.Reader is a Source.
type Source interface {
	// Next returns the next branch, or io.EOF when there is none.
	Next() (bp.Branch, error)
}

// Resolution describes one resolved branch.
type Resolution struct {
	// Seq is the fetch order of the branch, starting at 0.
	Seq uint64
	// Branch is the branch with its resolved direction.
	Branch bp.Branch
	// Predicted is the predicted direction. Only set for conditional
	// branches.
	Predicted bool
	// Speculative is true if the branch was fetched while older branches
	// were unresolved.
	Speculative bool
	// SpeculativePrediction is the direction SpeculativeUpdate assumed for
	// a speculative branch.
	SpeculativePrediction bool
}

// Correct reports whether the prediction matched the outcome.
func (r Resolution) Correct() bool {
	return r.Predicted == r.Branch.Taken
}

// Runner feeds branches to a predictor. With a resolve delay of n, a branch
// is resolved only after n younger branches have been fetched, and every
// branch fetched while older ones are pending goes through
// SpeculativeUpdate.
type Runner struct {
	*sim.HookableBase

	predictor bp.DirectionPredictor
	delay     int

	pending []Resolution
	seq     uint64
	stats   Stats
}

// Option configures a Runner.
type Option func(*Runner)

// WithResolveDelay sets how many younger branches are fetched before a
// branch resolves. Negative values are treated as zero.
func WithResolveDelay(n int) Option {
	return func(r *Runner) {
		r.delay = max(n, 0)
	}
}

// New creates a Runner for the predictor.
func New(predictor bp.DirectionPredictor, opts ...Option) *Runner {
	r := &Runner{
		HookableBase: sim.NewHookableBase(),
		predictor:    predictor,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Stats returns the statistics collected so far.
func (r *Runner) Stats() Stats {
	return r.stats
}

// Pending returns the number of fetched but unresolved branches.
func (r *Runner) Pending() int {
	return len(r.pending)
}

// Fetch predicts a branch and resolves the oldest pending branch once the
// resolve delay is exceeded.
func (r *Runner) Fetch(b bp.Branch) {
	entry := Resolution{Seq: r.seq, Branch: b}
	r.seq++
	r.stats.Branches++

	if len(r.pending) > 0 {
		entry.Speculative = true
		entry.SpeculativePrediction = r.predictor.SpeculativeUpdate(b)
		r.stats.SpeculativeUpdates++
	}

	if b.Kind.IsConditional() {
		entry.Predicted = r.predictor.Predict(b)
	}

	r.pending = append(r.pending, entry)

	if len(r.pending) > r.delay {
		r.resolveOldest()
	}
}

// Drain resolves every pending branch in fetch order.
func (r *Runner) Drain() {
	for len(r.pending) > 0 {
		r.resolveOldest()
	}
}

// Squash drops every pending branch without resolving it, as after a
// pipeline flush. The predictor is not told.
func (r *Runner) Squash() {
	r.stats.Squashed += uint64(len(r.pending))
	r.pending = r.pending[:0]
}

func (r *Runner) resolveOldest() {
	entry := r.pending[0]
	r.pending = r.pending[1:]

	r.predictor.Update(entry.Branch)

	if entry.Branch.Kind.IsConditional() {
		r.stats.record(entry)
	}

	r.InvokeHook(sim.HookCtx{
		Domain: r,
		Pos:    HookPosBranchResolved,
		Item:   entry,
	})
}

// Run fetches every branch of the source, drains the pipeline and returns
// the statistics.
func (r *Runner) Run(src Source) (Stats, error) {
	for {
		b, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			r.Drain()
			return r.stats, err
		}

		r.Fetch(b)
	}

	r.Drain()

	return r.stats, nil
}
