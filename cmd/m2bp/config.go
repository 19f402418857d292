package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the two-level predictor configuration.",
		Long: "`config` validates the configuration given by --config and " +
			"prints it as JSON. Without --config it prints the defaults.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")

			config, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(config, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(data))

			return nil
		},
	}
}
