package tabular

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// ============================================================================
// FormatFromName Tests
// ============================================================================

func TestFormatFromName(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"timesheet.csv", FormatCSV, false},
		{"TIMESHEET.CSV", FormatCSV, false},
		{"export.txt", FormatCSV, false},
		{"book.xlsx", FormatXLSX, false},
		{"macro.xlsm", FormatXLSX, false},
		{"legacy.xls", 0, true},
		{"notes.pdf", 0, true},
		{"noext", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatFromName(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("FormatFromName(%q) error = %v, want ErrUnsupportedFormat", tt.name, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("FormatFromName(%q) = (%v, %v), want %v", tt.name, got, err, tt.want)
			}
		})
	}
}

// ============================================================================
// CSV Tests
// ============================================================================

func TestRead_CSV(t *testing.T) {
	data := []byte("\uFEFFWeek Number,Month,Customer,Task Description,Hours\n" +
		"41,October,ECOLAB,\"Task, with comma\",8.0\n" +
		",,,,\n" +
		"41,October,-,Short row\n")

	table, err := Read(data, FormatCSV, Options{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if !table.HasColumn("Week Number") {
		t.Errorf("header %v lost BOM-prefixed column", table.Header)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2 (blank row dropped)", len(table.Rows))
	}

	first := table.Rows[0]
	if got := first.Get("Task Description").Raw(); got != "Task, with comma" {
		t.Errorf("quoted cell = %q, want %q", got, "Task, with comma")
	}
	if first.Line != 2 {
		t.Errorf("first.Line = %d, want 2", first.Line)
	}

	second := table.Rows[1]
	if !second.Get("Hours").IsNull() {
		t.Errorf("missing trailing cell should be null, got %q", second.Get("Hours").Raw())
	}
	if got := second.Get("Customer").Raw(); got != "-" {
		t.Errorf("placeholder cell should be kept raw, got %q", got)
	}
	if !second.Get("Nonexistent").IsNull() {
		t.Error("unknown column should be null")
	}
}

func TestRead_CSVInvalidUTF8(t *testing.T) {
	data := []byte("Customer\ncaf\xe9\n")
	table, err := Read(data, FormatCSV, Options{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got := table.Rows[0].Get("Customer").Raw(); got != "caf\uFFFD" {
		t.Errorf("Customer = %q, want replacement char", got)
	}
}

func TestRead_Empty(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"no bytes", nil},
		{"only blank lines", []byte("\n\n ,  \n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(tt.data, FormatCSV, Options{})
			if !errors.Is(err, ErrEmpty) {
				t.Errorf("Read() error = %v, want ErrEmpty", err)
			}
		})
	}
}

// ============================================================================
// XLSX Tests
// ============================================================================

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		r := row
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func TestRead_XLSX(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"Customer", "Hours", "Date"},
		{"ECOLAB", 8.0, time.Date(2024, 10, 7, 0, 0, 0, 0, time.UTC)},
		{"Acme", "7.5", "2024-10-08"},
	})

	table, err := Read(data, FormatXLSX, Options{DateColumns: []string{"Date"}})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}

	first := table.Rows[0]
	if got := first.Get("Hours").Raw(); got != "8" {
		t.Errorf("Hours = %q, want %q", got, "8")
	}
	if got := first.Get("Date").Raw(); got != "2024-10-07" {
		t.Errorf("Date = %q, want serial converted to 2024-10-07", got)
	}

	second := table.Rows[1]
	if got := second.Get("Date").Raw(); got != "2024-10-08" {
		t.Errorf("text Date = %q, want %q", got, "2024-10-08")
	}
}

func TestRead_XLSXCorrupt(t *testing.T) {
	_, err := Read(bytes.Repeat([]byte("x"), 64), FormatXLSX, Options{})
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("Read() error = %v, want ErrCorrupt", err)
	}
}
