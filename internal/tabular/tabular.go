// Package tabular reads uploaded timesheet files into ordered rows of typed cells.
//
// Two formats are supported: delimited text (comma separated) and Excel
// workbooks, of which only the first worksheet is read. Header names are kept
// exactly as written after trimming; matching against expected columns is the
// caller's job.
package tabular

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/timesheet/internal/normalize"
)

// Format identifies a supported file type.
type Format int

const (
	FormatCSV Format = iota + 1
	FormatXLSX
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	default:
		return "unknown"
	}
}

var (
	// ErrUnsupportedFormat is returned for file extensions no reader handles.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmpty is returned when a file has no header row.
	ErrEmpty = errors.New("empty file")

	// ErrCorrupt is returned when a file cannot be decoded.
	ErrCorrupt = errors.New("unreadable file")
)

// FormatFromName picks a reader from the file extension.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return 0, fmt.Errorf("%w: %q (expected .csv, .txt, .xlsx or .xlsm)", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// Row is one data row keyed by header name.
type Row struct {
	// Line is the 1-based line (or worksheet row) the data came from.
	Line  int
	Cells map[string]normalize.Value
}

// Get returns the cell under column, or normalize.Null when absent.
func (r Row) Get(column string) normalize.Value {
	if v, ok := r.Cells[column]; ok {
		return v
	}
	return normalize.Null
}

// Raw renders the row's cells as strings, for error reports.
func (r Row) Raw() map[string]any {
	out := make(map[string]any, len(r.Cells))
	for k, v := range r.Cells {
		if v.IsNull() {
			out[k] = nil
			continue
		}
		out[k] = v.Raw()
	}
	return out
}

// Table is a decoded file.
type Table struct {
	Header []string
	Rows   []Row
}

// HasColumn reports whether the header contains name exactly.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Header {
		if h == name {
			return true
		}
	}
	return false
}

// Options tune decoding.
type Options struct {
	// DateColumns lists columns whose numeric workbook cells are Excel
	// serial dates rather than plain numbers.
	DateColumns []string
}

func (o Options) isDateColumn(name string) bool {
	for _, c := range o.DateColumns {
		if c == name {
			return true
		}
	}
	return false
}

// Read decodes data in the given format.
func Read(data []byte, format Format, opts Options) (*Table, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	switch format {
	case FormatCSV:
		return readCSV(data)
	case FormatXLSX:
		return readXLSX(data, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// buildTable turns header plus raw records into rows, dropping blank rows.
// firstLine is the line number of records[0].
func buildTable(header []string, records [][]string, firstLine int, cell func(col, raw string) normalize.Value) *Table {
	cleaned := make([]string, len(header))
	for i, h := range header {
		cleaned[i] = cleanHeader(h)
	}

	t := &Table{Header: cleaned, Rows: make([]Row, 0, len(records))}
	for i, rec := range records {
		if isEmptyRow(rec) {
			continue
		}
		row := Row{Line: firstLine + i, Cells: make(map[string]normalize.Value, len(cleaned))}
		for j, name := range cleaned {
			if name == "" {
				continue
			}
			if j >= len(rec) {
				row.Cells[name] = normalize.Null
				continue
			}
			row.Cells[name] = cell(name, rec[j])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// cleanHeader trims whitespace and a leading byte-order mark.
func cleanHeader(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	return strings.TrimSpace(s)
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
