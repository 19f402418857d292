// Package automata implements the small finite-state machines that turn a
// pattern table entry into a prediction and adapt it on every outcome.
package automata

import (
	"fmt"
	"strings"
)

// State is one pattern table entry.
type State uint8

// States of the 4-state automata. LastOutcome only uses S0 and S1.
const (
	S0 State = iota
	S1
	S2
	S3
)

// Policy selects an automaton.
type Policy uint8

// Available policies.
const (
	// LastOutcome predicts whatever happened the last time the pattern
	// appeared.
	LastOutcome Policy = iota
	// A1 records the outcomes of the last two appearances of the pattern and
	// predicts not taken only if both were not taken.
	A1
	// A2 is a saturating up/down counter.
	A2
	// A3 records the outcomes of the last two executions.
	A3
	// A4 is a variant of A3 that returns to S1 from S2 on not taken.
	A4
)

var policyNames = [...]string{
	LastOutcome: "last_outcome",
	A1:          "a1",
	A2:          "a2",
	A3:          "a3",
	A4:          "a4",
}

// String returns the configuration name of the policy.
func (p Policy) String() string {
	if int(p) < len(policyNames) {
		return policyNames[p]
	}
	return fmt.Sprintf("Policy(%d)", uint8(p))
}

// ParsePolicy converts a configuration name into a Policy. Matching is case
// insensitive.
func ParsePolicy(s string) (Policy, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range policyNames {
		if n == name {
			return Policy(i), nil
		}
	}
	return 0, fmt.Errorf("unknown automaton policy %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	if int(p) >= len(policyNames) {
		return nil, fmt.Errorf("unknown automaton policy %d", uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Automaton maps pattern table states to predictions and next states. Both
// methods are pure.
type Automaton interface {
	// Policy returns the policy the automaton implements.
	Policy() Policy

	// NumStates returns how many distinct states the automaton uses.
	NumStates() int

	// Predict returns the predicted direction for the state.
	Predict(s State) bool

	// Transition returns the state after observing the outcome.
	Transition(s State, taken bool) State
}

// New returns the automaton for the policy.
func New(p Policy) (Automaton, error) {
	if int(p) >= len(tables) {
		return nil, fmt.Errorf("unknown automaton policy %d", uint8(p))
	}
	return &tables[p], nil
}

// table is a table-driven automaton. next is indexed by [state][outcome].
type table struct {
	policy  Policy
	predict []bool
	next    [][2]State
}

var tables = [...]table{
	LastOutcome: {
		policy:  LastOutcome,
		predict: []bool{false, true},
		next: [][2]State{
			S0: {S0, S1},
			S1: {S0, S1},
		},
	},
	A1: {
		policy:  A1,
		predict: []bool{false, true, true, true},
		next: [][2]State{
			S0: {S0, S1},
			S1: {S2, S3},
			S2: {S0, S1},
			S3: {S2, S3},
		},
	},
	A2: {
		policy:  A2,
		predict: []bool{false, false, true, true},
		next: [][2]State{
			S0: {S0, S1},
			S1: {S0, S2},
			S2: {S1, S3},
			S3: {S2, S3},
		},
	},
	A3: {
		policy:  A3,
		predict: []bool{false, false, true, true},
		next: [][2]State{
			S0: {S0, S1},
			S1: {S0, S3},
			S2: {S3, S0},
			S3: {S2, S3},
		},
	},
	A4: {
		policy:  A4,
		predict: []bool{false, false, true, true},
		next: [][2]State{
			S0: {S0, S1},
			S1: {S0, S3},
			S2: {S1, S3},
			S3: {S2, S3},
		},
	},
}

func (t *table) Policy() Policy {
	return t.policy
}

func (t *table) NumStates() int {
	return len(t.predict)
}

func (t *table) Predict(s State) bool {
	t.mustBeValid(s)
	return t.predict[s]
}

func (t *table) Transition(s State, taken bool) State {
	t.mustBeValid(s)
	outcome := 0
	if taken {
		outcome = 1
	}
	return t.next[s][outcome]
}

func (t *table) mustBeValid(s State) {
	if int(s) >= len(t.predict) {
		panic(fmt.Sprintf("automaton %s: invalid state %d", t.policy, s))
	}
}
