// Package cmd implements the drt command line.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/drt/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "drt",
	Short:         "Demand responsive transport insertion dispatcher",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (defaults apply when empty)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	return config.Load(cfgPath)
}
