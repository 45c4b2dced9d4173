package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/timesheet/internal/core"
	"github.com/JonMunkholm/timesheet/internal/database"
	"github.com/JonMunkholm/timesheet/internal/normalize"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// render writes v in the chosen format. table draws the human layout and
// is only called for the table format.
func render(w io.Writer, format string, v any, table func(tw *tabwriter.Writer)) error {
	switch format {
	case outputJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case outputYAML:
		data, err := toYAML(v)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}

// toYAML renders v with its JSON field names and order. The JSON encoding
// is parsed as a YAML node tree, then every node is switched to block style.
func toYAML(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse as YAML: %w", err)
	}
	blockStyle(&node)
	out, err := yaml.Marshal(&node)
	if err != nil {
		return nil, fmt.Errorf("marshal YAML: %w", err)
	}
	return out, nil
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-2] + ".."
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func importTable(r *core.ImportResult) func(tw *tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "Import:\t%s\n", r.ImportID)
		if r.FileName != "" {
			fmt.Fprintf(tw, "File:\t%s\n", r.FileName)
		}
		fmt.Fprintf(tw, "Rows:\t%d\n", r.TotalRows)
		fmt.Fprintf(tw, "Inserted:\t%d\n", r.Inserted())
		if r.Valid > 0 {
			fmt.Fprintf(tw, "Valid:\t%d\n", r.Valid)
		}
		fmt.Fprintf(tw, "Skipped:\t%d\n", r.Skipped)
		fmt.Fprintf(tw, "Errors:\t%d\n", len(r.ValidationErrors))
		if len(r.CreatedCustomers) > 0 {
			fmt.Fprintf(tw, "New customers:\t%v\n", r.CreatedCustomers)
		}
		if len(r.CreatedProjects) > 0 {
			fmt.Fprintf(tw, "New projects:\t%v\n", r.CreatedProjects)
		}
		if len(r.ValidationErrors) == 0 {
			return
		}

		fmt.Fprintf(tw, "\nROW\tTYPE\tERROR\n")
		fmt.Fprintf(tw, "---\t----\t-----\n")
		for _, e := range r.ValidationErrors {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", e.Row, e.Type, truncate(e.Error, 80))
		}
	}
}

func reportTable(entries []core.ReportEntry, total float64) func(tw *tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "PROJECT\tCATEGORY\tHOURS\tPERIOD\n")
		fmt.Fprintf(tw, "-------\t--------\t-----\t------\n")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", orDash(e.Project), e.Category, e.TotalHours, e.Period)
		}
		fmt.Fprintf(tw, "\t\t-----\t\n")
		fmt.Fprintf(tw, "TOTAL\t\t%.2f\t\n", total)
	}
}

func customerTable(items []database.Customer) func(tw *tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "NAME\tSTATUS\tINDUSTRY\tCONTACT\tCREATED\n")
		fmt.Fprintf(tw, "----\t------\t--------\t-------\t-------\n")
		for _, c := range items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				truncate(c.Name, 30),
				c.Status,
				orDash(c.Industry),
				orDash(c.ContactEmail),
				c.CreatedAt.Format(normalize.DateLayout),
			)
		}
		fmt.Fprintf(tw, "\nTotal: %d customer(s)\n", len(items))
	}
}
