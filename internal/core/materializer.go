package core

// materializer.go turns one raw row, or one API entry, into a Draft.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/timesheet/internal/database"
	"github.com/JonMunkholm/timesheet/internal/normalize"
	"github.com/JonMunkholm/timesheet/internal/tabular"
)

// RequiredFileColumns must all be present, spelled exactly, in an imported file.
var RequiredFileColumns = []string{
	"Week Number",
	"Month",
	"Category",
	"Subcategory",
	"Customer",
	"Project",
	"Task Description",
	"Hours",
	"Date",
}

// DefaultCategory replaces a blank category or subcategory.
const DefaultCategory = "Other"

// ErrMissingColumns is wrapped by MissingColumnsError.
var ErrMissingColumns = errors.New("missing required columns")

// MissingColumnsError rejects a whole file.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "Missing required columns: " + strings.Join(e.Columns, ", ")
}

func (e *MissingColumnsError) Unwrap() error { return ErrMissingColumns }

// CheckColumns returns a *MissingColumnsError naming every required column
// the table lacks, in RequiredFileColumns order.
func CheckColumns(t *tabular.Table) error {
	var missing []string
	for _, col := range RequiredFileColumns {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

// HoursPolicy decides what happens to hours outside the allowed range.
type HoursPolicy int

const (
	// HoursSkipOutOfRange drops rows whose hours are unparsable, zero or
	// negative, or above 24. Nothing is reported; the row counts as skipped.
	HoursSkipOutOfRange HoursPolicy = iota

	// HoursRejectOutOfRange reports hours outside [0, 24] as invalid_hours.
	// Zero is accepted and a missing value means zero.
	HoursRejectOutOfRange
)

func (p HoursPolicy) String() string {
	if p == HoursRejectOutOfRange {
		return "reject"
	}
	return "skip"
}

// Outcome is the result of materializing one row. Exactly one of Draft,
// Skipped, or a non-empty Errors without Draft describes what happened;
// a Draft may still carry Errors for references that were nulled.
type Outcome struct {
	Draft   *Draft
	Skipped bool
	Reason  string
	Errors  []ValidationErrorRecord
}

// Materializer builds drafts with one reference policy and one hours policy.
type Materializer struct {
	policy ReferencePolicy
	hours  HoursPolicy
	now    func() time.Time
}

// NewMaterializer returns a Materializer. now supplies "today" for
// fallbacks and defaults to time.Now.
func NewMaterializer(policy ReferencePolicy, hours HoursPolicy, now func() time.Time) *Materializer {
	if now == nil {
		now = time.Now
	}
	return &Materializer{policy: policy, hours: hours, now: now}
}

// Policy returns the reference policy.
func (m *Materializer) Policy() ReferencePolicy { return m.policy }

// FromRow materializes one file row. Field problems never fail the row:
// an unreadable date becomes today, an invalid week or month is derived
// from the date. The returned error is a storage failure from the resolver.
func (m *Materializer) FromRow(ctx context.Context, q database.Querier, row tabular.Row) (Outcome, error) {
	source := row.Raw()

	hours, skip, problem := m.checkHours(row.Get("Hours"))
	if skip {
		return Outcome{Skipped: true, Reason: "hours out of range"}, nil
	}
	if problem != "" {
		return Outcome{Errors: []ValidationErrorRecord{{
			Row: row.Line, Entry: source, Error: problem, Type: KindInvalidHours,
		}}}, nil
	}

	date := normalize.Date(row.Get("Date"), m.now())

	week, ok := normalize.ParseWeekNumber(row.Get("Week Number"))
	if !ok {
		week = normalize.ISOWeek(date)
	}
	month, ok := normalize.ParseMonthName(row.Get("Month"))
	if !ok {
		month = date.Month().String()
	}

	params := database.CreateTimeEntryParams{
		WeekNumber:      int32(week),
		Month:           month,
		Category:        orDefault(normalize.String(row.Get("Category"), normalize.Category), DefaultCategory),
		Subcategory:     orDefault(normalize.String(row.Get("Subcategory"), normalize.Category), DefaultCategory),
		TaskDescription: nilIfEmpty(normalize.String(row.Get("Task Description"), normalize.Plain)),
		Hours:           hours,
		Date:            pgtype.Date{Time: date, Valid: true},
	}

	customer, _ := normalize.CustomerName(row.Get("Customer"))
	project, _ := normalize.ProjectID(row.Get("Project"))

	return m.finish(ctx, q, params, References{Customer: customer, Project: project}, row.Line, source)
}

// FromInput materializes one API entry. Field problems are reported as
// validation records and the entry produces no draft. pos is the entry's
// 1-based position in its batch, or 0.
func (m *Materializer) FromInput(ctx context.Context, q database.Querier, in TimeEntryInput, pos int) (Outcome, error) {
	source := in.Fields()

	var records []ValidationErrorRecord
	if err := in.Validate(); err != nil {
		var ie *InputError
		if !errors.As(err, &ie) {
			return Outcome{}, err
		}
		for _, f := range ie.Fields {
			if f.Field == "hours" {
				continue
			}
			records = append(records, ValidationErrorRecord{
				Row: pos, Entry: source, Error: f.Field + " " + f.Message, Type: fieldKind(f),
			})
		}
	}

	hoursValue := normalize.Null
	if in.Hours != nil {
		hoursValue = normalize.Number(*in.Hours)
	}
	hours, skip, problem := m.checkHours(hoursValue)
	if problem != "" {
		records = append(records, ValidationErrorRecord{
			Row: pos, Entry: source, Error: problem, Type: KindInvalidHours,
		})
	}
	if len(records) > 0 {
		return Outcome{Errors: records}, nil
	}
	if skip {
		return Outcome{Skipped: true, Reason: "hours out of range"}, nil
	}

	date, _ := normalize.ParseDate(normalize.Text(in.Date))

	week := normalize.ISOWeek(date)
	if in.WeekNumber != nil {
		week = *in.WeekNumber
	}
	month := date.Month().String()
	if in.Month != nil {
		month, _ = normalize.ParseMonthName(normalize.Text(*in.Month))
	}

	params := database.CreateTimeEntryParams{
		WeekNumber:      int32(week),
		Month:           month,
		Category:        orDefault(normalize.String(normalize.Text(in.Category), normalize.Category), DefaultCategory),
		Subcategory:     orDefault(normalize.String(normalize.Text(in.Subcategory), normalize.Category), DefaultCategory),
		TaskDescription: nilIfEmpty(normalize.String(textOrNull(in.TaskDescription), normalize.Plain)),
		Hours:           hours,
		Date:            pgtype.Date{Time: date, Valid: true},
	}

	customer, _ := normalize.CustomerName(textOrNull(in.Customer))
	project, _ := normalize.ProjectID(textOrNull(in.Project))

	return m.finish(ctx, q, params, References{Customer: customer, Project: project}, pos, source)
}

func (m *Materializer) finish(ctx context.Context, q database.Querier, params database.CreateTimeEntryParams, refs References, pos int, source map[string]any) (Outcome, error) {
	res, err := m.policy.Resolve(ctx, q, refs)
	if err != nil {
		return Outcome{}, err
	}

	var out Outcome
	for _, p := range res.Problems {
		out.Errors = append(out.Errors, ValidationErrorRecord{
			Row: pos, Entry: source, Error: p.Message, Type: p.Kind,
		})
	}
	if res.Rejected {
		return out, nil
	}

	params.Customer = res.Customer
	params.Project = res.Project
	out.Draft = &Draft{
		Params:         params,
		CustomerOrigin: res.CustomerOrigin,
		ProjectOrigin:  res.ProjectOrigin,
		Row:            pos,
		Source:         source,
	}
	return out, nil
}

// checkHours applies the hours policy. skip means drop the row silently;
// a non-empty problem means report it.
func (m *Materializer) checkHours(v normalize.Value) (hours float64, skip bool, problem string) {
	if m.hours == HoursSkipOutOfRange {
		h := normalize.Hours(v, 0)
		if h <= 0 {
			return 0, true, ""
		}
		return h, false, ""
	}

	if v.IsNull() {
		return 0, false, ""
	}
	h := normalize.Hours(v, -1)
	if h < 0 {
		return 0, false, fmt.Sprintf("Hours must be between 0 and %g, got %s", normalize.MaxHours, v.Raw())
	}
	return h, false, ""
}

func fieldKind(f FieldError) ErrorKind {
	switch f.Field {
	case "date":
		if f.Message == "is required" {
			return KindMissingField
		}
		return KindInvalidDate
	case "week_number":
		return KindInvalidWeekNumber
	case "month":
		return KindInvalidMonth
	case "hours":
		return KindInvalidHours
	default:
		return KindMissingField
	}
}

func textOrNull(s *string) normalize.Value {
	if s == nil {
		return normalize.Null
	}
	return normalize.Text(*s)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
