package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/m2bp/bp"
	"github.com/sarchlab/m2bp/bp/bimodal"
	"github.com/sarchlab/m2bp/bp/twolevel"
)

// configEnv names the environment variable that provides the default
// --config path.
const configEnv = "M2BP_CONFIG"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "m2bp",
		Short: "m2bp evaluates branch direction predictors over branch traces.",
		Long: `m2bp evaluates branch direction predictors over branch traces. ` +
			`It supports two-level adaptive predictors with hashed, ` +
			`set-associative and ideal history register tables, and bimodal ` +
			`and gshare baselines.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", os.Getenv(configEnv),
		"Path to a two-level predictor JSON configuration (default $"+configEnv+")")

	root.AddCommand(newRunCmd(), newConfigCmd(), newGenCmd())

	return root
}

// loadConfig returns the configuration at path, or the default configuration
// when path is empty.
func loadConfig(path string) (*twolevel.Config, error) {
	if path == "" {
		return twolevel.DefaultConfig(), nil
	}

	config, err := twolevel.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return config, nil
}

// newPredictor builds the named predictor. The baselines take only the
// number of cores from the configuration.
func newPredictor(name string, config *twolevel.Config) (bp.DirectionPredictor, error) {
	switch name {
	case "twolevel":
		return twolevel.New(config)
	case "bimodal":
		c := bimodal.DefaultConfig()
		c.NumCores = config.NumCores
		return bimodal.New(c)
	case "gshare":
		c := bimodal.DefaultGshareConfig()
		c.NumCores = config.NumCores
		return bimodal.New(c)
	default:
		return nil, fmt.Errorf("unknown predictor %q", name)
	}
}

func describe(config *twolevel.Config) string {
	data, err := json.Marshal(config)
	if err != nil {
		return ""
	}
	return string(data)
}
