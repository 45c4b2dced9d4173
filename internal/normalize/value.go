// Package normalize cleans single raw timesheet fields into canonical values.
//
// Every function here is total: malformed input yields a documented fallback
// instead of an error, so one bad cell never aborts a row.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"
)

type valueKind uint8

const (
	kindNull valueKind = iota
	kindText
	kindNumber
	kindTime
)

// Value is one raw cell as produced by a tabular reader: blank, text, a
// number, or an already-typed timestamp.
type Value struct {
	kind valueKind
	text string
	num  float64
	t    time.Time
}

// Null is the blank cell.
var Null = Value{}

// Text wraps a string cell.
func Text(s string) Value { return Value{kind: kindText, text: s} }

// Number wraps a numeric cell. NaN is treated as blank.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Null
	}
	return Value{kind: kindNumber, num: f}
}

// Time wraps a date or datetime cell.
func Time(t time.Time) Value { return Value{kind: kindTime, t: t} }

// IsNull reports whether v is blank.
func (v Value) IsNull() bool { return v.kind == kindNull }

// Raw renders v the way it appeared in the source, for error reports.
func (v Value) Raw() string {
	switch v.kind {
	case kindText:
		return v.text
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindTime:
		if v.t.Hour() == 0 && v.t.Minute() == 0 && v.t.Second() == 0 {
			return v.t.Format(DateLayout)
		}
		return v.t.Format(time.RFC3339)
	default:
		return ""
	}
}

// placeholders are tokens spreadsheets use for "no value". Compared case-insensitively.
var placeholders = map[string]bool{
	"-":    true,
	"none": true,
	"null": true,
	"na":   true,
	"n/a":  true,
	"#n/a": true,
	"nan":  true,
}

// IsPlaceholder reports whether s, once trimmed, is blank or a placeholder token.
func IsPlaceholder(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || placeholders[strings.ToLower(s)]
}

// textual returns the trimmed textual form of v and whether it carries a real value.
func (v Value) textual() (string, bool) {
	if v.kind == kindNull {
		return "", false
	}
	s := strings.TrimSpace(v.Raw())
	if IsPlaceholder(s) {
		return "", false
	}
	return s, true
}
