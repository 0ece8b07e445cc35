package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ai-coach-chat/internal/config"
	"ai-coach-chat/internal/infra/logging"
	"ai-coach-chat/internal/infra/metrics"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

type rootFlags struct {
	configPath string
	dev        bool
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "app",
		Short:         "AI coach chat service",
		Long:          "Accepts coach questions over HTTP and answers them asynchronously with an LLM.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&f.configPath, "config", "config.yaml", "path to YAML config file")
	cmd.PersistentFlags().BoolVar(&f.dev, "dev", false, "enable developer mode (dev auth header, noop AI, console logs)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd(f))
	cmd.AddCommand(newMigrateCmd(f))
	cmd.AddCommand(newJobsCmd(f))
	cmd.AddCommand(newTokenCmd(f))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "app %s (commit: %s)\n", Version, Commit)
		},
	}
}

// load reads the config and builds the process logger.
func (f *rootFlags) load() (*config.Config, *zerolog.Logger, error) {
	cfg, err := config.LoadConfig(f.configPath, f.dev)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}
	metrics.SetBuildInfo(Version, Commit)
	return cfg, logger, nil
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
