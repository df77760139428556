// Package cmd implements the praetor command-line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praetor-ai/praetor/internal/config"
)

var (
	configDir string
	logLevel  string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "praetor",
	Short: "Multi-agent deliberation and consensus engine",
	Long: `praetor runs structured debates between agents: turn-based argument
rounds, evidence-weighted positions, pluggable consensus algorithms, and a
bounded appeal process. Debates that cannot converge escalate to a human
operator instead of fabricating a verdict.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configDir)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		if logLevel != "" {
			loaded.Logging.Level = logLevel
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory containing praetor.yaml (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level (DEBUG, INFO, WARN, ERROR)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
