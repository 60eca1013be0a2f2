// Package cli implements the channeliq command-line interface: ad-hoc
// analyses against a live database, migration management, and version info.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/channeliq/channeliq/internal/config"
	"github.com/channeliq/channeliq/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// rootOptions holds the global flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	output     string
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "channeliq",
		Short:   "ChannelIQ — channel-product fit analytics for multi-channel sellers",
		Long:    "ChannelIQ analyzes a seller's orders and inventory across marketplaces,\ncompares performance against anonymized cross-tenant benchmarks, and produces\nper-channel fit scores and ranked recommendations.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file path")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.output, "output", "o", "text", "output format (text, json)")

	cmd.AddCommand(newAnalyzeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCommand().Execute()
}

// loadConfig resolves the configuration for a subcommand, applying the
// log-level flag on top of the file.
func (o *rootOptions) loadConfig() (*config.Config, logging.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	log, err := logging.NewLogger(logging.LogConfig{Level: cfg.Log.Level, Format: "console"})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
