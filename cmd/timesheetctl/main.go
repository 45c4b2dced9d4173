// Package main is the entry point for the timesheet admin CLI.
package main

import (
	"os"

	"github.com/JonMunkholm/timesheet/cmd/timesheetctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
