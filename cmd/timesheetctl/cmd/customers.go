package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/timesheet/internal/core"
)

var (
	customersSkip  int
	customersLimit int
)

// customersCmd represents the customers command group
var customersCmd = &cobra.Command{
	Use:   "customers",
	Short: "Customer commands",
}

var customersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List customers by name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer app.Close()

		items, err := app.Service.ListCustomers(cmd.Context(), core.Page{Skip: customersSkip, Limit: customersLimit})
		if err != nil {
			return fmt.Errorf("list customers: %s", userError(err))
		}
		if len(items) == 0 && output == outputTable {
			fmt.Fprintln(cmd.OutOrStdout(), "No customers found.")
			return nil
		}
		return render(cmd.OutOrStdout(), output, items, customerTable(items))
	},
}

func init() {
	customersListCmd.Flags().IntVar(&customersSkip, "skip", 0, "customers to skip")
	customersListCmd.Flags().IntVar(&customersLimit, "limit", core.DefaultPageLimit, "maximum customers to list")

	customersCmd.AddCommand(customersListCmd)
	rootCmd.AddCommand(customersCmd)
}
