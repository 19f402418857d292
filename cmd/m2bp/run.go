package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/m2bp/record"
	"github.com/sarchlab/m2bp/runner"
	"github.com/sarchlab/m2bp/trace"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [trace]",
		Short: "Run a predictor over a branch trace.",
		Long: "`run [trace]` feeds every branch of the trace to the predictor " +
			"and prints its accuracy. The trace is read from stdin when no " +
			"path is given.",
		Args: cobra.MaximumNArgs(1),
		RunE: runTrace,
	}

	cmd.Flags().String("predictor", "twolevel", "Predictor: twolevel, bimodal or gshare")
	cmd.Flags().Int("delay", 0, "Number of younger branches fetched before a branch resolves")
	cmd.Flags().String("record", "", "Record every resolution into this SQLite file")
	cmd.Flags().BoolP("verbose", "v", false, "Log every misprediction")

	return cmd
}

func runTrace(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	name, _ := cmd.Flags().GetString("predictor")
	delay, _ := cmd.Flags().GetInt("delay")
	recordPath, _ := cmd.Flags().GetString("record")
	verbose, _ := cmd.Flags().GetBool("verbose")

	config, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	predictor, err := newPredictor(name, config)
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open trace: %w", err)
		}
		defer f.Close()
		in = f
	}

	r := runner.New(predictor, runner.WithResolveDelay(delay))

	if verbose {
		hook := runner.NewLogHook(log.New(cmd.ErrOrStderr(), "", 0))
		hook.MispredictionsOnly = true
		r.AcceptHook(hook)
	}

	if recordPath != "" {
		recorder, err := record.New(recordPath)
		if err != nil {
			return err
		}
		defer recorder.Close()

		if err := recorder.RecordRun(name, describe(config)); err != nil {
			return err
		}
		r.AcceptHook(recorder)
	}

	stats, err := r.Run(trace.NewReader(in, trace.WithNumCores(config.NumCores)))
	if err != nil {
		return fmt.Errorf("failed to read trace: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), stats)

	return nil
}
