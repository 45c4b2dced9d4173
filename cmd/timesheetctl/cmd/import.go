package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/timesheet/internal/core"
)

// importCmd imports timesheet files through the lenient path
var importCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Import CSV or XLSX timesheet files",
	Long: `Import one or more timesheet files (.csv, .txt, .xlsx, .xlsm).

Unknown customers and projects are created on the fly. Rows with hours
outside (0, 24] are skipped. Each file is imported in its own transaction.

Example:
  timesheetctl import week41.csv week42.xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := core.ContextWithSource(cmd.Context(), core.SourceCLI)
		app, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer app.Close()

		for _, path := range args {
			if err := importOne(ctx, cmd, app.Service, path); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func importOne(ctx context.Context, cmd *cobra.Command, svc *core.Service, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	PrintVerbose("importing %s (%d bytes)", path, len(data))

	result, err := svc.ImportFile(ctx, filepath.Base(path), data)
	if err != nil {
		return fmt.Errorf("%s: %s", path, userError(err))
	}
	return render(cmd.OutOrStdout(), output, result, importTable(result))
}

// userError prefers the mapped message when there is one.
func userError(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return err.Error()
}

