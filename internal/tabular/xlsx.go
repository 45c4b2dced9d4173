package tabular

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/timesheet/internal/normalize"
)

// readXLSX reads the first worksheet. Cells are taken raw (unformatted) so
// numbers and serial dates are not subject to the workbook's display format.
func readXLSX(data []byte, opts Options) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrCorrupt, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrCorrupt, sheets[0], err)
	}

	start := 0
	for start < len(rows) && isEmptyRow(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, ErrEmpty
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	cell := func(col, raw string) normalize.Value {
		s := strings.TrimSpace(raw)
		if s == "" {
			return normalize.Null
		}
		if opts.isDateColumn(col) {
			if serial, err := strconv.ParseFloat(s, 64); err == nil {
				if t, err := excelize.ExcelDateToTime(serial, date1904); err == nil {
					return normalize.Time(t)
				}
			}
		}
		return normalize.Text(s)
	}

	return buildTable(rows[start], rows[start+1:], start+2, cell), nil
}
