package core

import (
	"time"

	"github.com/JonMunkholm/timesheet/internal/database"
)

// ErrorKind tags a ValidationErrorRecord.
type ErrorKind string

const (
	KindInvalidHours      ErrorKind = "invalid_hours"
	KindInvalidDate       ErrorKind = "invalid_date"
	KindInvalidWeekNumber ErrorKind = "invalid_week_number"
	KindInvalidMonth      ErrorKind = "invalid_month"
	KindMissingField      ErrorKind = "missing_field"

	KindInvalidCustomer        ErrorKind = "invalid_customer"
	KindInvalidProject         ErrorKind = "invalid_project"
	KindInvalidProjectCustomer ErrorKind = "invalid_project_customer"
	// KindRelationshipMismatch: customer and project both exist but the
	// project belongs to someone else.
	KindRelationshipMismatch ErrorKind = "invalid_project_customer_relationship"

	// KindRowFailed marks a row whose references could not be stored.
	KindRowFailed ErrorKind = "row_failed"
)

// Origin says where a resolved reference came from.
type Origin string

const (
	OriginNone     Origin = ""
	OriginExisting Origin = "existing"
	OriginCreated  Origin = "created"
	OriginDefault  Origin = "default"
)

// ValidationErrorRecord describes one rejected row or one bad reference.
type ValidationErrorRecord struct {
	// Row is the 1-based source line for file imports, or the 1-based
	// position in the submitted list for batches.
	Row   int            `json:"row,omitempty"`
	Entry map[string]any `json:"entry"`
	Error string         `json:"error"`
	Type  ErrorKind      `json:"type"`
}

// Draft is one fully normalized time entry that has not been stored yet.
type Draft struct {
	Params         database.CreateTimeEntryParams
	CustomerOrigin Origin
	ProjectOrigin  Origin

	Row    int
	Source map[string]any
}

// ImportResult is returned by every import path.
type ImportResult struct {
	ImportID         string                  `json:"import_id"`
	FileName         string                  `json:"file_name,omitempty"`
	Entries          []database.TimeEntry    `json:"entries"`
	ValidationErrors []ValidationErrorRecord `json:"validation_errors"`
	TotalRows        int                     `json:"total_rows"`
	Skipped          int                     `json:"skipped"`
	Valid            int                     `json:"valid,omitempty"`
	CreatedCustomers []string                `json:"created_customers"`
	CreatedProjects  []string                `json:"created_projects"`
	Duration         time.Duration           `json:"-"`
}

func newImportResult(id, fileName string) *ImportResult {
	return &ImportResult{
		ImportID:         id,
		FileName:         fileName,
		Entries:          []database.TimeEntry{},
		ValidationErrors: []ValidationErrorRecord{},
		CreatedCustomers: []string{},
		CreatedProjects:  []string{},
	}
}

// Inserted returns the number of stored entries.
func (r *ImportResult) Inserted() int { return len(r.Entries) }

// WeeklyReport sums hours per (project, customer) for one Monday-to-Sunday week.
type WeeklyReport struct {
	WeekNumber int           `json:"week_number"`
	Month      string        `json:"month"`
	StartDate  string        `json:"start_date"`
	EndDate    string        `json:"end_date"`
	TotalHours float64       `json:"total_hours"`
	Entries    []ReportEntry `json:"entries"`
}

// MonthlyReport sums hours per (project, customer) for one calendar month.
type MonthlyReport struct {
	Year       int           `json:"year"`
	Month      int           `json:"month"`
	TotalHours float64       `json:"total_hours"`
	Entries    []ReportEntry `json:"entries"`
}

// ReportEntry is one group of a report. Category is the customer, or
// "Unassigned" when the entries carry none.
type ReportEntry struct {
	TotalHours float64 `json:"total_hours"`
	Category   string  `json:"category"`
	Project    *string `json:"project"`
	Period     string  `json:"period"`
}
