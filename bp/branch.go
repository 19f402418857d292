// Package bp defines the branch handle shared by all direction predictors in
// m2bp and the interface through which a simulator talks to them.
package bp

import "fmt"

// Kind classifies a control-flow instruction.
type Kind uint8

// Control-flow kinds. Only Conditional branches train direction predictors.
const (
	Conditional Kind = iota
	Unconditional
	Call
	Return
	Indirect
)

var kindNames = [...]string{
	Conditional:   "cbr",
	Unconditional: "jmp",
	Call:          "call",
	Return:        "ret",
	Indirect:      "ind",
}

// String returns the short trace mnemonic of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind converts a trace mnemonic back into a Kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown branch kind %q", s)
}

// IsConditional reports whether the kind carries a taken/not-taken direction.
func (k Kind) IsConditional() bool {
	return k == Conditional
}

// Branch is the view of one dynamic branch instance a predictor receives
// from the host simulator.
type Branch struct {
	// Core is the core or hardware thread the branch executed on.
	Core int
	// PC is the instruction address used for prediction.
	PC uint64
	// GlobalHistory is the speculative global history at prediction time,
	// most recent outcome in bit 0. Address-indexed predictors ignore it.
	GlobalHistory uint32
	// Taken is the resolved direction. It is only meaningful on Update.
	Taken bool
	// Kind distinguishes conditional branches from other control flow.
	Kind Kind
}

// DirectionPredictor is implemented by every taken/not-taken predictor.
type DirectionPredictor interface {
	// Predict returns the predicted direction without changing any state.
	Predict(b Branch) bool

	// SpeculativeUpdate is called for a branch that steers speculative
	// execution while older branches are still unresolved. It returns the
	// direction assumed for speculative bookkeeping.
	SpeculativeUpdate(b Branch) bool

	// Update trains the predictor with the resolved direction in b.Taken.
	Update(b Branch)
}
