// Package commands defines all Cobra CLI commands for the jobpulse binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/jobpulse/jobpulse-go/internal/audit"
	"github.com/jobpulse/jobpulse-go/internal/config"
	"github.com/jobpulse/jobpulse-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "jobpulse",
		Short: "jobpulse — channel-fed job aggregation and matching",
		Long: `jobpulse ingests job postings from public messaging channels,
classifies and deduplicates them with AI assistance, and serves hybrid
keyword + semantic matches over HTTP.

Run 'jobpulse monitor' to start the ingestion agent and
'jobpulse serve' to start the query API. Connection strings come from
env vars (DATABASE_URL, REDIS_URL, OPENAI_API_KEY) or a YAML config
file (~/.jobpulse/config.yaml).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.NewFromEnv()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.jobpulse/config.yaml)")

	root.AddCommand(
		NewMonitorCmd(),
		NewServeCmd(),
		NewVersionCmd(),
	)

	return root
}
