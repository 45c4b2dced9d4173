package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/timesheet/internal/admin"
)

var (
	resetAll bool
	resetYes bool
)

// resetCmd truncates timesheet tables
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete time entries (or everything with --all)",
	Long: `Delete every time entry. With --all, customers, projects and project
managers are deleted too. Cached reports are invalidated.

This cannot be undone. --yes is required.

Example:
  timesheetctl reset --all --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			return errors.New("refusing to reset without --yes")
		}

		app, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer app.Close()

		r := &admin.ResetDbs{DB: app.Queries, Logger: app.Logger}
		if app.Cache != nil {
			r.Cache = app.Cache
		}

		if resetAll {
			err = r.ResetAll(cmd.Context())
		} else {
			err = r.ResetEntries(cmd.Context())
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Reset complete.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "also delete customers, projects and project managers")
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "confirm the reset")
	rootCmd.AddCommand(resetCmd)
}
