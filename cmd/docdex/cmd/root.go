// Package cmd provides the CLI commands for docdex.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/config"
	"github.com/docdex/docdex/internal/logging"
	"github.com/docdex/docdex/pkg/version"
)

var (
	corpusRoot     string
	logLevel       string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the docdex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docdex",
		Short: "Local BM25 documentation retrieval for AI agents",
		Long: `Docdex indexes a directory of documentation files and serves the
fragments most relevant to a query, either on the command line or as
an MCP server for AI coding assistants.

The index lives under <corpus>/.docdex and rebuilds automatically
whenever the documentation changes.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("docdex version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&corpusRoot, "corpus", "c", ".", "Documentation corpus root directory")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig reads the config for the corpus root given on the
// command line, letting the --log-level flag win over the file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(corpusRoot)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}
	return cfg, nil
}

// setupLogging routes structured logs to ~/.docdex/logs. CLI commands
// keep stdout clean for their own output.
func setupLogging(cmd *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	if logLevel != "" {
		logCfg.Level = logLevel
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		// Logging failures never block the command itself.
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
		return nil
	}
	slog.SetDefault(logger)
	loggingCleanup = cleanup
	return nil
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
