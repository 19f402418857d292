package runner_test

import (
	"bytes"
	"log"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/m2bp/bp"
	"github.com/sarchlab/m2bp/bp/twolevel"
	"github.com/sarchlab/m2bp/runner"
	"github.com/sarchlab/m2bp/trace"
)

type collectingHook struct {
	resolutions []runner.Resolution
}

func (h *collectingHook) Func(ctx sim.HookCtx) {
	if ctx.Pos == runner.HookPosBranchResolved {
		h.resolutions = append(h.resolutions, ctx.Item.(runner.Resolution))
	}
}

func cbr(pc uint64, taken bool) bp.Branch {
	return bp.Branch{PC: pc, Taken: taken, Kind: bp.Conditional}
}

var _ = Describe("Runner", func() {
	var (
		mockCtrl  *gomock.Controller
		predictor *MockDirectionPredictor
		hook      *collectingHook
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		predictor = NewMockDirectionPredictor(mockCtrl)
		hook = &collectingHook{}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("without resolve delay", func() {
		It("should predict and update each branch in turn", func() {
			b0 := cbr(0x100, true)
			b1 := cbr(0x104, true)

			gomock.InOrder(
				predictor.EXPECT().Predict(b0).Return(true),
				predictor.EXPECT().Update(b0),
				predictor.EXPECT().Predict(b1).Return(false),
				predictor.EXPECT().Update(b1),
			)

			r := runner.New(predictor)
			r.AcceptHook(hook)
			r.Fetch(b0)
			r.Fetch(b1)

			stats := r.Stats()
			Expect(stats.Branches).To(Equal(uint64(2)))
			Expect(stats.Predictions).To(Equal(uint64(2)))
			Expect(stats.Correct).To(Equal(uint64(1)))
			Expect(stats.Mispredictions).To(Equal(uint64(1)))
			Expect(stats.SpeculativeUpdates).To(BeZero())
			Expect(stats.Accuracy()).To(BeNumerically("~", 50.0, 0.1))

			Expect(hook.resolutions).To(HaveLen(2))
			Expect(hook.resolutions[1].Seq).To(Equal(uint64(1)))
			Expect(hook.resolutions[1].Correct()).To(BeFalse())
		})

		It("should update but not predict non-conditional branches", func() {
			b := bp.Branch{PC: 0x200, Taken: true, Kind: bp.Call}
			predictor.EXPECT().Update(b)

			r := runner.New(predictor)
			r.Fetch(b)

			Expect(r.Stats().Branches).To(Equal(uint64(1)))
			Expect(r.Stats().Predictions).To(BeZero())
		})
	})

	Context("with resolve delay", func() {
		It("should speculate on younger branches and resolve in order", func() {
			b0 := cbr(0x100, false)
			b1 := cbr(0x104, true)
			b2 := cbr(0x108, true)

			gomock.InOrder(
				predictor.EXPECT().Predict(b0).Return(false),
				predictor.EXPECT().SpeculativeUpdate(b1).Return(true),
				predictor.EXPECT().Predict(b1).Return(true),
				predictor.EXPECT().SpeculativeUpdate(b2).Return(false),
				predictor.EXPECT().Predict(b2).Return(false),
				predictor.EXPECT().Update(b0),
				predictor.EXPECT().Update(b1),
				predictor.EXPECT().Update(b2),
			)

			r := runner.New(predictor, runner.WithResolveDelay(2))
			r.AcceptHook(hook)

			r.Fetch(b0)
			r.Fetch(b1)
			Expect(r.Pending()).To(Equal(2))

			r.Fetch(b2)
			Expect(r.Pending()).To(Equal(2))
			Expect(hook.resolutions).To(HaveLen(1))

			r.Drain()
			Expect(r.Pending()).To(BeZero())

			stats := r.Stats()
			Expect(stats.SpeculativeUpdates).To(Equal(uint64(2)))
			Expect(stats.Correct).To(Equal(uint64(2)))
			Expect(stats.Mispredictions).To(Equal(uint64(1)))

			Expect(hook.resolutions[0].Speculative).To(BeFalse())
			Expect(hook.resolutions[1].Speculative).To(BeTrue())
			Expect(hook.resolutions[1].SpeculativePrediction).To(BeTrue())
			Expect(hook.resolutions[2].SpeculativePrediction).To(BeFalse())
			Expect(hook.resolutions[2].Branch).To(Equal(b2))
		})

		It("should drop squashed branches without training", func() {
			b0 := cbr(0x100, true)
			b1 := cbr(0x104, true)

			predictor.EXPECT().Predict(b0).Return(true)
			predictor.EXPECT().SpeculativeUpdate(b1).Return(true)
			predictor.EXPECT().Predict(b1).Return(true)

			r := runner.New(predictor, runner.WithResolveDelay(4))
			r.Fetch(b0)
			r.Fetch(b1)
			r.Squash()
			r.Drain()

			Expect(r.Stats().Squashed).To(Equal(uint64(2)))
			Expect(r.Stats().Predictions).To(BeZero())
		})

		It("should treat a negative delay as zero", func() {
			b := cbr(0x100, true)
			predictor.EXPECT().Predict(b).Return(true)
			predictor.EXPECT().Update(b)

			r := runner.New(predictor, runner.WithResolveDelay(-3))
			r.Fetch(b)
			Expect(r.Pending()).To(BeZero())
		})
	})

	Describe("Run", func() {
		It("should stop on a malformed trace and drain what was fetched", func() {
			b := cbr(0x10, true)
			predictor.EXPECT().Predict(b).Return(true)
			predictor.EXPECT().Update(b)

			src := trace.NewReader(strings.NewReader("0 0x10 1\n0 0x14 what\n"))
			r := runner.New(predictor, runner.WithResolveDelay(1))

			stats, err := r.Run(src)
			Expect(err).To(MatchError(trace.ErrMalformed))
			Expect(stats.Predictions).To(Equal(uint64(1)))
		})

		It("should learn a loop with the two-level predictor", func() {
			p, err := twolevel.New(twolevel.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())

			var sb strings.Builder
			for i := 0; i < 400; i++ {
				taken := "1"
				if i%5 == 4 {
					taken = "0"
				}
				sb.WriteString("0 0x400200 " + taken + "\n")
			}

			r := runner.New(p)
			stats, err := r.Run(trace.NewReader(strings.NewReader(sb.String())))
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Predictions).To(Equal(uint64(400)))
			Expect(stats.SpeculativeUpdates).To(BeZero())
			Expect(stats.TakenRate()).To(BeNumerically("~", 80.0, 0.1))
			Expect(stats.Accuracy()).To(BeNumerically(">", 90.0))
		})

		It("should keep learning with delayed resolution", func() {
			p, err := twolevel.New(twolevel.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())

			s, err := trace.NewSynthesizer(0, 7, trace.Pattern{PC: 0x400300, Bias: 1})
			Expect(err).NotTo(HaveOccurred())

			r := runner.New(p, runner.WithResolveDelay(3))
			for _, b := range s.Generate(400) {
				r.Fetch(b)
			}
			r.Drain()

			stats := r.Stats()
			Expect(stats.Predictions).To(Equal(uint64(400)))
			Expect(stats.SpeculativeUpdates).To(Equal(uint64(399)))
			Expect(stats.Accuracy()).To(BeNumerically(">", 90.0))
		})
	})

	Describe("LogHook", func() {
		It("should log mispredictions only when asked", func() {
			var buf bytes.Buffer
			h := runner.NewLogHook(log.New(&buf, "", 0))
			h.MispredictionsOnly = true

			good := runner.Resolution{Seq: 1, Branch: cbr(0x10, true), Predicted: true}
			bad := runner.Resolution{Seq: 2, Branch: cbr(0x14, true), Predicted: false}
			speculated := runner.Resolution{
				Seq:                   3,
				Branch:                cbr(0x18, false),
				Predicted:             true,
				Speculative:           true,
				SpeculativePrediction: true,
			}

			h.Func(sim.HookCtx{Pos: runner.HookPosBranchResolved, Item: good})
			h.Func(sim.HookCtx{Pos: runner.HookPosBranchResolved, Item: bad})
			h.Func(sim.HookCtx{Pos: sim.HookPosBeforeEvent, Item: bad})
			h.Func(sim.HookCtx{Pos: runner.HookPosBranchResolved, Item: speculated})

			Expect(buf.String()).To(Equal(
				"seq=2 core=0 pc=0x14 predicted=false taken=true\n" +
					"seq=3 core=0 pc=0x18 predicted=true taken=false assumed=true\n"))
		})
	})

	Describe("Stats", func() {
		It("should report zero rates before any prediction", func() {
			var s runner.Stats
			Expect(s.Accuracy()).To(BeZero())
			Expect(s.MispredictionRate()).To(BeZero())
			Expect(s.TakenRate()).To(BeZero())
		})

		It("should summarize on one line", func() {
			s := runner.Stats{Branches: 4, Predictions: 4, Correct: 3, Mispredictions: 1}
			Expect(s.String()).To(ContainSubstring("accuracy=75.00%"))
			Expect(s.MispredictionRate()).To(BeNumerically("~", 25.0, 0.1))
		})
	})
})
