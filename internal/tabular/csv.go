package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/timesheet/internal/normalize"
)

func readCSV(data []byte) (*Table, error) {
	data = sanitizeUTF8(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid csv: %v", ErrCorrupt, err)
	}

	// Skip leading blank lines before the header.
	start := 0
	for start < len(records) && isEmptyRow(records[start]) {
		start++
	}
	if start == len(records) {
		return nil, ErrEmpty
	}

	return buildTable(records[start], records[start+1:], start+2, csvCell), nil
}

func csvCell(_ string, raw string) normalize.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return normalize.Null
	}
	return normalize.Text(s)
}

// sanitizeUTF8 replaces invalid byte sequences with U+FFFD so spreadsheets
// exported in legacy encodings still parse.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
