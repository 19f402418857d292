package runner

import (
	"log"

	"github.com/sarchlab/akita/v4/sim"
)

// LogHook prints resolved branches.
type LogHook struct {
	*log.Logger

	// MispredictionsOnly limits the output to mispredicted branches.
	MispredictionsOnly bool
}

// NewLogHook creates a LogHook writing to logger.
func NewLogHook(logger *log.Logger) *LogHook {
	return &LogHook{Logger: logger}
}

// Func logs a resolution.
func (h *LogHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != HookPosBranchResolved {
		return
	}

	res, ok := ctx.Item.(Resolution)
	if !ok || !res.Branch.Kind.IsConditional() {
		return
	}

	if h.MispredictionsOnly && res.Correct() {
		return
	}

	if !res.Speculative {
		h.Printf("seq=%d core=%d pc=%#x predicted=%t taken=%t",
			res.Seq, res.Branch.Core, res.Branch.PC,
			res.Predicted, res.Branch.Taken)
		return
	}

	h.Printf("seq=%d core=%d pc=%#x predicted=%t taken=%t assumed=%t",
		res.Seq, res.Branch.Core, res.Branch.PC,
		res.Predicted, res.Branch.Taken, res.SpeculativePrediction)
}
