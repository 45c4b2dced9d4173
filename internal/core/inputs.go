package core

// inputs.go holds the typed request bodies. Every accepted field is listed
// on the struct; DecodeJSON rejects anything else.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/timesheet/internal/database"
	"github.com/JonMunkholm/timesheet/internal/normalize"
)

// ErrInvalidInput is wrapped by every InputError.
var ErrInvalidInput = errors.New("invalid input")

// FieldError is one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InputError collects every problem found in a request body.
type InputError struct {
	Fields []FieldError
}

func (e *InputError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func (e *InputError) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *InputError) errOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// DecodeJSON decodes one JSON value from r into dst. Unknown fields and
// trailing data are rejected.
func DecodeJSON(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &InputError{Fields: []FieldError{{Field: "body", Message: "request body is empty"}}}
		}
		return &InputError{Fields: []FieldError{{Field: "body", Message: err.Error()}}}
	}
	if dec.More() {
		return &InputError{Fields: []FieldError{{Field: "body", Message: "unexpected data after JSON value"}}}
	}
	return nil
}

// DecodeEntries accepts either a JSON array of entries or a single entry.
func DecodeEntries(data []byte) ([]TimeEntryInput, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var one TimeEntryInput
		if err := DecodeJSON(bytes.NewReader(trimmed), &one); err != nil {
			return nil, err
		}
		return []TimeEntryInput{one}, nil
	}
	var many []TimeEntryInput
	if err := DecodeJSON(bytes.NewReader(trimmed), &many); err != nil {
		return nil, err
	}
	return many, nil
}

var statuses = map[string]bool{"active": true, "inactive": true, "completed": true, "on_hold": true}

func validStatus(s string) bool { return statuses[s] }

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// ============================================================================
// Customers
// ============================================================================

// CustomerInput creates a customer. Status defaults to "active".
type CustomerInput struct {
	Name         string  `json:"name"`
	ContactEmail *string `json:"contact_email"`
	Industry     *string `json:"industry"`
	Status       *string `json:"status"`
	Address      *string `json:"address"`
	Phone        *string `json:"phone"`
}

func (in CustomerInput) Validate() error {
	var e InputError
	if strings.TrimSpace(in.Name) == "" {
		e.add("name", "is required")
	}
	if in.ContactEmail != nil && *in.ContactEmail != "" && !strings.Contains(*in.ContactEmail, "@") {
		e.add("contact_email", "must be an email address")
	}
	if in.Status != nil && !validStatus(*in.Status) {
		e.add("status", "must be one of active, inactive, completed, on_hold")
	}
	return e.errOrNil()
}

func (in CustomerInput) params() database.CreateCustomerParams {
	p := database.CreateCustomerParams{
		Name:         strings.TrimSpace(in.Name),
		ContactEmail: blankToNil(in.ContactEmail),
		Industry:     blankToNil(in.Industry),
		Status:       "active",
		Address:      blankToNil(in.Address),
		Phone:        blankToNil(in.Phone),
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	return p
}

// CustomerUpdate changes only the fields that are present.
type CustomerUpdate struct {
	Name         *string `json:"name"`
	ContactEmail *string `json:"contact_email"`
	Industry     *string `json:"industry"`
	Status       *string `json:"status"`
	Address      *string `json:"address"`
	Phone        *string `json:"phone"`
}

func (in CustomerUpdate) Validate() error {
	var e InputError
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		e.add("name", "must not be blank")
	}
	if in.ContactEmail != nil && *in.ContactEmail != "" && !strings.Contains(*in.ContactEmail, "@") {
		e.add("contact_email", "must be an email address")
	}
	if in.Status != nil && !validStatus(*in.Status) {
		e.add("status", "must be one of active, inactive, completed, on_hold")
	}
	return e.errOrNil()
}

func (in CustomerUpdate) apply(c database.Customer) database.UpdateCustomerParams {
	p := database.UpdateCustomerParams{
		Key:          c.Name,
		Name:         c.Name,
		ContactEmail: c.ContactEmail,
		Industry:     c.Industry,
		Status:       c.Status,
		Address:      c.Address,
		Phone:        c.Phone,
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.ContactEmail != nil {
		p.ContactEmail = blankToNil(in.ContactEmail)
	}
	if in.Industry != nil {
		p.Industry = blankToNil(in.Industry)
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.Address != nil {
		p.Address = blankToNil(in.Address)
	}
	if in.Phone != nil {
		p.Phone = blankToNil(in.Phone)
	}
	return p
}

// ============================================================================
// Project managers
// ============================================================================

// ProjectManagerInput creates a project manager.
type ProjectManagerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (in ProjectManagerInput) Validate() error {
	var e InputError
	if strings.TrimSpace(in.Name) == "" {
		e.add("name", "is required")
	}
	if !strings.Contains(in.Email, "@") {
		e.add("email", "must be an email address")
	}
	return e.errOrNil()
}

// ProjectManagerUpdate changes only the fields that are present.
type ProjectManagerUpdate struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

func (in ProjectManagerUpdate) Validate() error {
	var e InputError
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		e.add("name", "must not be blank")
	}
	if in.Email != nil && !strings.Contains(*in.Email, "@") {
		e.add("email", "must be an email address")
	}
	return e.errOrNil()
}

// ============================================================================
// Projects
// ============================================================================

// ProjectInput creates a project. Name defaults to the project id and
// status to "active". Customer and ProjectManager must exist when set.
type ProjectInput struct {
	ProjectID      string  `json:"project_id"`
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	Customer       *string `json:"customer"`
	ProjectManager *string `json:"project_manager"`
	Status         *string `json:"status"`
}

func (in ProjectInput) Validate() error {
	var e InputError
	if _, ok := normalize.ProjectID(normalize.Text(in.ProjectID)); !ok {
		e.add("project_id", "is required")
	}
	if in.Status != nil && !validStatus(*in.Status) {
		e.add("status", "must be one of active, inactive, completed, on_hold")
	}
	return e.errOrNil()
}

func (in ProjectInput) params() database.CreateProjectParams {
	id, _ := normalize.ProjectID(normalize.Text(in.ProjectID))
	p := database.CreateProjectParams{
		ProjectID:      id,
		Name:           id,
		Description:    blankToNil(in.Description),
		Customer:       blankToNil(in.Customer),
		ProjectManager: blankToNil(in.ProjectManager),
		Status:         "active",
	}
	if n := blankToNil(in.Name); n != nil {
		p.Name = *n
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	return p
}

// ProjectUpdate changes only the fields that are present. An empty string
// clears Customer or ProjectManager.
type ProjectUpdate struct {
	ProjectID      *string `json:"project_id"`
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	Customer       *string `json:"customer"`
	ProjectManager *string `json:"project_manager"`
	Status         *string `json:"status"`
}

func (in ProjectUpdate) Validate() error {
	var e InputError
	if in.ProjectID != nil {
		if _, ok := normalize.ProjectID(normalize.Text(*in.ProjectID)); !ok {
			e.add("project_id", "must not be blank")
		}
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		e.add("name", "must not be blank")
	}
	if in.Status != nil && !validStatus(*in.Status) {
		e.add("status", "must be one of active, inactive, completed, on_hold")
	}
	return e.errOrNil()
}

func (in ProjectUpdate) apply(p database.Project) database.UpdateProjectParams {
	out := database.UpdateProjectParams{
		Key:            p.ProjectID,
		ProjectID:      p.ProjectID,
		Name:           p.Name,
		Description:    p.Description,
		Customer:       p.Customer,
		ProjectManager: p.ProjectManager,
		Status:         p.Status,
	}
	if in.ProjectID != nil {
		out.ProjectID, _ = normalize.ProjectID(normalize.Text(*in.ProjectID))
	}
	if in.Name != nil {
		out.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		out.Description = blankToNil(in.Description)
	}
	if in.Customer != nil {
		out.Customer = blankToNil(in.Customer)
	}
	if in.ProjectManager != nil {
		out.ProjectManager = blankToNil(in.ProjectManager)
	}
	if in.Status != nil {
		out.Status = *in.Status
	}
	return out
}

// ============================================================================
// Time entries
// ============================================================================

// TimeEntryInput is one time entry submitted through the API. Date is
// required. WeekNumber and Month are derived from Date when omitted.
type TimeEntryInput struct {
	WeekNumber      *int     `json:"week_number"`
	Month           *string  `json:"month"`
	Category        string   `json:"category"`
	Subcategory     string   `json:"subcategory"`
	Customer        *string  `json:"customer"`
	Project         *string  `json:"project"`
	TaskDescription *string  `json:"task_description"`
	Hours           *float64 `json:"hours"`
	Date            string   `json:"date"`
}

// Validate checks field formats and ranges. Hours outside [0, 24] are
// rejected here; zero is accepted.
func (in TimeEntryInput) Validate() error {
	var e InputError
	if strings.TrimSpace(in.Date) == "" {
		e.add("date", "is required")
	} else if _, ok := normalize.ParseDate(normalize.Text(in.Date)); !ok {
		e.add("date", "could not parse %q", in.Date)
	}
	if in.WeekNumber != nil && (*in.WeekNumber < 1 || *in.WeekNumber > 53) {
		e.add("week_number", "must be between 1 and 53")
	}
	if in.Month != nil {
		if _, ok := normalize.ParseMonthName(normalize.Text(*in.Month)); !ok {
			e.add("month", "must be a month name")
		}
	}
	if in.Hours != nil && (*in.Hours < 0 || *in.Hours > normalize.MaxHours) {
		e.add("hours", "must be between 0 and 24")
	}
	return e.errOrNil()
}

// Fields renders the input the way it was submitted, for error reports.
func (in TimeEntryInput) Fields() map[string]any {
	m := map[string]any{
		"category":    in.Category,
		"subcategory": in.Subcategory,
		"date":        in.Date,
	}
	put := func(k string, v any, ok bool) {
		if ok {
			m[k] = v
		} else {
			m[k] = nil
		}
	}
	put("week_number", derefInt(in.WeekNumber), in.WeekNumber != nil)
	put("month", deref(in.Month), in.Month != nil)
	put("customer", deref(in.Customer), in.Customer != nil)
	put("project", deref(in.Project), in.Project != nil)
	put("task_description", deref(in.TaskDescription), in.TaskDescription != nil)
	if in.Hours != nil {
		m["hours"] = *in.Hours
	} else {
		m["hours"] = nil
	}
	return m
}

// TimeEntryUpdate changes only the fields that are present. A Customer or
// Project that is present goes through the lenient resolver, like creation.
type TimeEntryUpdate struct {
	WeekNumber      *int     `json:"week_number"`
	Month           *string  `json:"month"`
	Category        *string  `json:"category"`
	Subcategory     *string  `json:"subcategory"`
	Customer        *string  `json:"customer"`
	Project         *string  `json:"project"`
	TaskDescription *string  `json:"task_description"`
	Hours           *float64 `json:"hours"`
	Date            *string  `json:"date"`
}

// merge overlays u on the stored entry and returns a full input.
func (u TimeEntryUpdate) merge(e database.TimeEntry) TimeEntryInput {
	week := int(e.WeekNumber)
	month := e.Month
	hours := e.Hours
	in := TimeEntryInput{
		WeekNumber:      &week,
		Month:           &month,
		Category:        e.Category,
		Subcategory:     e.Subcategory,
		Customer:        e.Customer,
		Project:         e.Project,
		TaskDescription: e.TaskDescription,
		Hours:           &hours,
		Date:            e.Date.Time.Format(normalize.DateLayout),
	}
	if u.Date != nil {
		in.Date = *u.Date
		// A new date re-derives week and month unless they are given too.
		in.WeekNumber, in.Month = nil, nil
	}
	if u.WeekNumber != nil {
		in.WeekNumber = u.WeekNumber
	}
	if u.Month != nil {
		in.Month = u.Month
	}
	if u.Category != nil {
		in.Category = *u.Category
	}
	if u.Subcategory != nil {
		in.Subcategory = *u.Subcategory
	}
	if u.Customer != nil {
		in.Customer = u.Customer
	}
	if u.Project != nil {
		in.Project = u.Project
	}
	if u.TaskDescription != nil {
		in.TaskDescription = u.TaskDescription
	}
	if u.Hours != nil {
		in.Hours = u.Hours
	}
	return in
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
