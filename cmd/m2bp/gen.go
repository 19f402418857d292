package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/m2bp/trace"
)

// genBasePC is the address of the first synthetic branch. Later branches
// follow every genPCStride bytes.
const (
	genBasePC   = 0x400000
	genPCStride = 0x40
)

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a synthetic branch trace.",
		Long: "`gen` writes a trace of interleaved synthetic branches to stdout. " +
			"Each --period adds a loop back-edge and each --bias adds a " +
			"randomly taken branch.",
		Args: cobra.NoArgs,
		RunE: generate,
	}

	cmd.Flags().Int("branches", 10000, "Number of branches to generate")
	cmd.Flags().Uint64("seed", 1, "Random seed")
	cmd.Flags().Int("core", 0, "Core the branches belong to")
	cmd.Flags().IntSlice("period", []int{8}, "Trip counts of loop branches")
	cmd.Flags().Float64Slice("bias", nil, "Taken probabilities of random branches")

	return cmd
}

func generate(cmd *cobra.Command, args []string) error {
	n, _ := cmd.Flags().GetInt("branches")
	seed, _ := cmd.Flags().GetUint64("seed")
	core, _ := cmd.Flags().GetInt("core")
	periods, _ := cmd.Flags().GetIntSlice("period")
	biases, _ := cmd.Flags().GetFloat64Slice("bias")

	if n < 0 {
		return fmt.Errorf("branch count must not be negative, got %d", n)
	}

	var patterns []trace.Pattern
	for _, p := range periods {
		if p <= 0 {
			return fmt.Errorf("loop period must be positive, got %d", p)
		}
		patterns = append(patterns, trace.Pattern{Period: p})
	}
	for _, b := range biases {
		patterns = append(patterns, trace.Pattern{Bias: b})
	}
	for i := range patterns {
		patterns[i].PC = genBasePC + uint64(i)*genPCStride
	}

	s, err := trace.NewSynthesizer(core, seed, patterns...)
	if err != nil {
		return err
	}

	w := trace.NewWriter(cmd.OutOrStdout())
	for i := 0; i < n; i++ {
		if err := w.Write(s.Next()); err != nil {
			return err
		}
	}

	return w.Flush()
}
