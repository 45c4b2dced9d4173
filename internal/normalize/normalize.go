package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind selects field-specific cleaning in String.
type Kind int

const (
	// Plain trims only.
	Plain Kind = iota
	// Category title-cases ("other training" -> "Other Training").
	Category
	// ProjectKey replaces spaces and hyphens with underscores.
	ProjectKey
)

// MaxHours is the largest number of hours a single entry may carry.
const MaxHours = 24.0

// DateLayout is the canonical calendar date format.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order before the general heuristic:
// m/d/yy, yyyy-mm-dd, m/d/yyyy, d-m-yyyy, yyyy/m/d.
var dateLayouts = []string{
	"1/2/06",
	DateLayout,
	"1/2/2006",
	"2-1-2006",
	"2006/1/2",
}

var projectKeyReplacer = strings.NewReplacer(" ", "_", "-", "_")

// String returns the cleaned text of v, or "" for blank and placeholder cells.
func String(v Value, kind Kind) string {
	s, ok := v.textual()
	if !ok {
		return ""
	}
	switch kind {
	case Category:
		return titleCase(s)
	case ProjectKey:
		return projectKeyReplacer.Replace(s)
	default:
		return s
	}
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// Hours parses an hours cell. Thousands separators are ignored. Anything
// unparsable or outside [0, MaxHours] yields def.
func Hours(v Value, def float64) float64 {
	var f float64
	switch v.kind {
	case kindNumber:
		f = v.num
	case kindText:
		s := strings.ReplaceAll(strings.TrimSpace(v.text), ",", "")
		if IsPlaceholder(s) {
			return def
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return def
		}
		f = parsed
	default:
		return def
	}
	if math.IsNaN(f) || f < 0 || f > MaxHours {
		return def
	}
	return f
}

// ParseDate interprets v as a calendar date. Typed times are used as-is;
// strings go through the fixed layouts and then a general heuristic.
func ParseDate(v Value) (time.Time, bool) {
	if v.kind == kindTime {
		return dateOnly(v.t), true
	}
	s, ok := v.textual()
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), true
		}
	}
	if t, err := dateparse.ParseAny(s); err == nil {
		return dateOnly(t), true
	}
	return time.Time{}, false
}

// Date is ParseDate with a fallback: blank or unparsable input yields today.
func Date(v Value, today time.Time) time.Time {
	if t, ok := ParseDate(v); ok {
		return t
	}
	return dateOnly(today)
}

// ParseWeekNumber accepts integral values in [1, 53].
func ParseWeekNumber(v Value) (int, bool) {
	var f float64
	switch v.kind {
	case kindNumber:
		f = v.num
	case kindText:
		s, ok := v.textual()
		if !ok {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if f != math.Trunc(f) || f < 1 || f > 53 {
		return 0, false
	}
	return int(f), true
}

// WeekNumber returns the parsed week, or the ISO week of today.
func WeekNumber(v Value, today time.Time) int {
	if n, ok := ParseWeekNumber(v); ok {
		return n
	}
	return ISOWeek(today)
}

// ParseMonthName matches one of the twelve English month names case-insensitively
// and returns it title-cased.
func ParseMonthName(v Value) (string, bool) {
	s, ok := v.textual()
	if !ok {
		return "", false
	}
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(s, m.String()) {
			return m.String(), true
		}
	}
	return "", false
}

// MonthName returns the parsed month, or the month of today.
func MonthName(v Value, today time.Time) string {
	if m, ok := ParseMonthName(v); ok {
		return m
	}
	return today.Month().String()
}

// CustomerName trims a customer cell. Case is preserved. The boolean is
// false for blank and placeholder cells.
func CustomerName(v Value) (string, bool) {
	return v.textual()
}

// ProjectID trims a project cell and replaces spaces and hyphens with
// underscores. The boolean is false for blank and placeholder cells.
func ProjectID(v Value) (string, bool) {
	s, ok := v.textual()
	if !ok {
		return "", false
	}
	return projectKeyReplacer.Replace(s), true
}

// ISOWeek returns the ISO 8601 week number of t.
func ISOWeek(t time.Time) int {
	_, w := t.ISOWeek()
	return w
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
