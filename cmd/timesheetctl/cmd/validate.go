package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/timesheet/internal/core"
)

var validateCommit bool

// validateCmd checks a JSON batch against existing reference data
var validateCmd = &cobra.Command{
	Use:   "validate FILE.json",
	Short: "Validate a JSON batch of time entries",
	Long: `Check a JSON array (or single object) of time entries against the
customers and projects that already exist. Nothing is created.

With --commit the valid entries are stored, like POST /api/time-entries/bulk.

Examples:
  timesheetctl validate entries.json
  timesheetctl validate entries.json --commit -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		entries, err := core.DecodeEntries(data)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		ctx := core.ContextWithSource(cmd.Context(), core.SourceCLI)
		app, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer app.Close()

		var result *core.ImportResult
		if validateCommit {
			result, err = app.Service.ImportEntries(ctx, entries)
		} else {
			result, err = app.Service.ValidateEntries(ctx, entries)
		}
		if err != nil {
			return fmt.Errorf("%s: %s", args[0], userError(err))
		}
		return render(cmd.OutOrStdout(), output, result, importTable(result))
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateCommit, "commit", false, "store the valid entries")
	rootCmd.AddCommand(validateCmd)
}
