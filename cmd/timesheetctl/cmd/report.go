package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/timesheet/internal/normalize"
)

var (
	reportDate    string
	reportYear    int
	reportMonth   int
	reportProject string
)

// reportCmd represents the report command group
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Hours reports",
	Long: `Summarize hours per project and customer.

Examples:
  # This week
  timesheetctl report weekly

  # The week containing a date, one project only
  timesheetctl report weekly --date 2024-10-09 --project Apollo

  # A calendar month
  timesheetctl report monthly --year 2024 --month 10`,
}

var reportWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Monday-to-Sunday report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var day time.Time
		if reportDate != "" {
			var err error
			day, err = time.Parse(normalize.DateLayout, reportDate)
			if err != nil {
				return fmt.Errorf("invalid --date %q: use YYYY-MM-DD", reportDate)
			}
		}

		app, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer app.Close()

		report, err := app.Service.WeeklyReport(cmd.Context(), day, reportProject)
		if err != nil {
			return fmt.Errorf("weekly report: %s", userError(err))
		}
		return render(cmd.OutOrStdout(), output, report, func(tw *tabwriter.Writer) {
			fmt.Fprintf(tw, "Week %d (%s to %s)\n\n", report.WeekNumber, report.StartDate, report.EndDate)
			reportTable(report.Entries, report.TotalHours)(tw)
		})
	},
}

var reportMonthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Calendar month report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer app.Close()

		report, err := app.Service.MonthlyReport(cmd.Context(), reportYear, reportMonth, reportProject)
		if err != nil {
			return fmt.Errorf("monthly report: %s", userError(err))
		}
		return render(cmd.OutOrStdout(), output, report, func(tw *tabwriter.Writer) {
			fmt.Fprintf(tw, "%04d-%02d\n\n", report.Year, report.Month)
			reportTable(report.Entries, report.TotalHours)(tw)
		})
	},
}

func init() {
	reportWeeklyCmd.Flags().StringVar(&reportDate, "date", "", "any day of the week, YYYY-MM-DD (default: today)")
	reportMonthlyCmd.Flags().IntVar(&reportYear, "year", 0, "year (default: current)")
	reportMonthlyCmd.Flags().IntVar(&reportMonth, "month", 0, "month 1-12 (default: current)")
	reportCmd.PersistentFlags().StringVar(&reportProject, "project", "", "only this project id")

	reportCmd.AddCommand(reportWeeklyCmd)
	reportCmd.AddCommand(reportMonthlyCmd)
	rootCmd.AddCommand(reportCmd)
}
