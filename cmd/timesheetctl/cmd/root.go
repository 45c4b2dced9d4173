// Package cmd contains the CLI commands for timesheetctl.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/timesheet/internal/application"
	"github.com/JonMunkholm/timesheet/internal/config"
	"github.com/JonMunkholm/timesheet/internal/logging"
)

var (
	// Used for flags
	verbose bool
	output  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "timesheetctl",
	Short: "Timesheet administration from the command line",
	Long: `timesheetctl runs timesheet operations directly against the database,
using the same configuration as the API server (environment or .env).

Examples:
  # Import a spreadsheet, creating unknown customers and projects
  timesheetctl import week41.xlsx

  # Check a JSON batch against existing customers and projects
  timesheetctl validate entries.json

  # Weekly report as YAML
  timesheetctl report weekly --date 2024-10-09 -o yaml

  # Apply schema migrations
  timesheetctl migrate`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch output {
		case outputTable, outputJSON, outputYAML:
			return nil
		default:
			return fmt.Errorf("invalid output format %q (use table, json or yaml)", output)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Ctrl-C cancels the running command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", outputTable, "output format (table, json, yaml)")
}

// loadConfig reads .env (without overriding the environment) and the config.
func loadConfig() (*config.Config, *slog.Logger, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	return cfg, logging.New(level, cfg.Logging.Format, os.Stderr), nil
}

// openApp connects using the environment configuration. Schema migrations
// run only when migrate is true.
func openApp(ctx context.Context, migrate bool) (*application.App, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return application.Open(ctx, cfg, logger, application.Options{Migrate: &migrate})
}

// PrintVerbose prints a message to stderr only if verbose mode is enabled.
func PrintVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
