package automata_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/m2bp/bp/automata"
)

func mustNew(p automata.Policy) automata.Automaton {
	a, err := automata.New(p)
	Expect(err).NotTo(HaveOccurred())
	return a
}

var _ = Describe("Automata", func() {
	Describe("LastOutcome", func() {
		var a automata.Automaton

		BeforeEach(func() {
			a = mustNew(automata.LastOutcome)
		})

		It("should use two states", func() {
			Expect(a.NumStates()).To(Equal(2))
		})

		It("should predict the last outcome from any state", func() {
			for _, s := range []automata.State{automata.S0, automata.S1} {
				Expect(a.Predict(a.Transition(s, true))).To(BeTrue())
				Expect(a.Predict(a.Transition(s, false))).To(BeFalse())
			}
		})

		It("should panic on a 4-state value", func() {
			Expect(func() { a.Predict(automata.S2) }).To(Panic())
		})
	})

	Describe("A2 saturating counter", func() {
		var a automata.Automaton

		BeforeEach(func() {
			a = mustNew(automata.A2)
		})

		It("should saturate at S3 after three taken outcomes", func() {
			s := automata.S0
			for i := 0; i < 3; i++ {
				s = a.Transition(s, true)
			}
			Expect(s).To(Equal(automata.S3))
			Expect(a.Predict(s)).To(BeTrue())

			Expect(a.Transition(s, true)).To(Equal(automata.S3))
		})

		It("should need two not-taken outcomes to flip from S3", func() {
			s := a.Transition(automata.S3, false)
			Expect(s).To(Equal(automata.S2))
			Expect(a.Predict(s)).To(BeTrue())

			s = a.Transition(s, false)
			Expect(s).To(Equal(automata.S1))
			Expect(a.Predict(s)).To(BeFalse())
		})

		It("should saturate at S0", func() {
			Expect(a.Transition(automata.S0, false)).To(Equal(automata.S0))
		})
	})

	DescribeTable("transitions",
		func(p automata.Policy, from automata.State, onNotTaken, onTaken automata.State) {
			a := mustNew(p)
			Expect(a.Transition(from, false)).To(Equal(onNotTaken))
			Expect(a.Transition(from, true)).To(Equal(onTaken))
		},
		Entry("LastOutcome S0", automata.LastOutcome, automata.S0, automata.S0, automata.S1),
		Entry("LastOutcome S1", automata.LastOutcome, automata.S1, automata.S0, automata.S1),
		Entry("A1 S0", automata.A1, automata.S0, automata.S0, automata.S1),
		Entry("A1 S1", automata.A1, automata.S1, automata.S2, automata.S3),
		Entry("A1 S2", automata.A1, automata.S2, automata.S0, automata.S1),
		Entry("A1 S3", automata.A1, automata.S3, automata.S2, automata.S3),
		Entry("A2 S0", automata.A2, automata.S0, automata.S0, automata.S1),
		Entry("A2 S1", automata.A2, automata.S1, automata.S0, automata.S2),
		Entry("A2 S2", automata.A2, automata.S2, automata.S1, automata.S3),
		Entry("A2 S3", automata.A2, automata.S3, automata.S2, automata.S3),
		Entry("A3 S0", automata.A3, automata.S0, automata.S0, automata.S1),
		Entry("A3 S1", automata.A3, automata.S1, automata.S0, automata.S3),
		Entry("A3 S2", automata.A3, automata.S2, automata.S3, automata.S0),
		Entry("A3 S3", automata.A3, automata.S3, automata.S2, automata.S3),
		Entry("A4 S0", automata.A4, automata.S0, automata.S0, automata.S1),
		Entry("A4 S1", automata.A4, automata.S1, automata.S0, automata.S3),
		Entry("A4 S2", automata.A4, automata.S2, automata.S1, automata.S3),
		Entry("A4 S3", automata.A4, automata.S3, automata.S2, automata.S3),
	)

	DescribeTable("predictions",
		func(p automata.Policy, expected []bool) {
			a := mustNew(p)
			Expect(a.NumStates()).To(Equal(len(expected)))
			for s, want := range expected {
				Expect(a.Predict(automata.State(s))).To(Equal(want),
					"policy %s state S%d", p, s)
			}
		},
		Entry("LastOutcome", automata.LastOutcome, []bool{false, true}),
		Entry("A1", automata.A1, []bool{false, true, true, true}),
		Entry("A2", automata.A2, []bool{false, false, true, true}),
		Entry("A3", automata.A3, []bool{false, false, true, true}),
		Entry("A4", automata.A4, []bool{false, false, true, true}),
	)

	It("should not mutate the state on predict", func() {
		a := mustNew(automata.A1)
		s := automata.S1
		a.Predict(s)
		Expect(s).To(Equal(automata.S1))
	})

	It("should reject an unknown policy", func() {
		_, err := automata.New(automata.Policy(42))
		Expect(err).To(HaveOccurred())
	})

	Describe("Policy names", func() {
		It("should parse case insensitively", func() {
			p, err := automata.ParsePolicy("A3")
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(Equal(automata.A3))
		})

		It("should reject unknown names", func() {
			_, err := automata.ParsePolicy("a5")
			Expect(err).To(MatchError(ContainSubstring("a5")))
		})

		It("should decode from JSON", func() {
			var cfg struct {
				Automaton automata.Policy `json:"automaton"`
			}
			err := json.Unmarshal([]byte(`{"automaton":"last_outcome"}`), &cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Automaton).To(Equal(automata.LastOutcome))
		})
	})
})
