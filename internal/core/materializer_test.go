package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/timesheet/internal/database/mocks"
	"github.com/JonMunkholm/timesheet/internal/tabular"
)

const fileHeader = "Week Number,Month,Category,Subcategory,Customer,Project,Task Description,Hours,Date\n"

var fixedNow = func() time.Time { return time.Date(2024, 10, 9, 15, 0, 0, 0, time.UTC) }

func readCSV(t *testing.T, body string) *tabular.Table {
	t.Helper()
	table, err := tabular.Read([]byte(body), tabular.FormatCSV, tabular.Options{})
	if err != nil {
		t.Fatalf("tabular.Read: %v", err)
	}
	return table
}

func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }

// =============================================================================
// CheckColumns
// =============================================================================

func TestCheckColumns(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		missing []string
	}{
		{"all present", fileHeader, nil},
		{"hours missing", "Week Number,Month,Category,Subcategory,Customer,Project,Task Description,Date\n", []string{"Hours"}},
		{"case differs", "week number,Month,Category,Subcategory,Customer,Project,Task Description,Hours,Date\n", []string{"Week Number"}},
		{"several missing", "Customer,Project\n", []string{"Week Number", "Month", "Category", "Subcategory", "Task Description", "Hours", "Date"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckColumns(readCSV(t, tt.header))
			if tt.missing == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var mce *MissingColumnsError
			if !errors.As(err, &mce) {
				t.Fatalf("expected *MissingColumnsError, got %v", err)
			}
			if !errors.Is(err, ErrMissingColumns) {
				t.Error("error does not wrap ErrMissingColumns")
			}
			want := "Missing required columns: " + strings.Join(tt.missing, ", ")
			if err.Error() != want {
				t.Errorf("Error() = %q, want %q", err.Error(), want)
			}
		})
	}
}

// =============================================================================
// FromRow
// =============================================================================

func TestMaterializer_FromRow(t *testing.T) {
	tests := []struct {
		name        string
		row         string
		wantSkipped bool
		wantWeek    int32
		wantMonth   string
		wantDate    string
		wantHours   float64
		wantCat     string
		wantProject string
		wantCust    string
	}{
		{
			name:        "complete row",
			row:         "41,October,development,backend,ECOLAB,Project Magic Bullet,Build it,8.0,2024-10-07",
			wantWeek:    41,
			wantMonth:   "October",
			wantDate:    "2024-10-07",
			wantHours:   8,
			wantCat:     "Development",
			wantProject: "Project_Magic_Bullet",
			wantCust:    "ECOLAB",
		},
		{
			name:        "derived week and month",
			row:         ",,Meetings,Sync,Acme,Apollo,,1.5,2024-01-15",
			wantWeek:    3,
			wantMonth:   "January",
			wantDate:    "2024-01-15",
			wantHours:   1.5,
			wantCat:     "Meetings",
			wantProject: "Apollo",
			wantCust:    "Acme",
		},
		{
			name:        "invalid week falls back to date",
			row:         "99,Smarch,,,Acme,Apollo,,2,1/15/2024",
			wantWeek:    3,
			wantMonth:   "January",
			wantDate:    "2024-01-15",
			wantHours:   2,
			wantCat:     DefaultCategory,
			wantProject: "Apollo",
			wantCust:    "Acme",
		},
		{
			name:        "unparsable date becomes today",
			row:         ",,Dev,Dev,Acme,Apollo,,3,someday",
			wantWeek:    41,
			wantMonth:   "October",
			wantDate:    "2024-10-09",
			wantHours:   3,
			wantCat:     "Dev",
			wantProject: "Apollo",
			wantCust:    "Acme",
		},
		{
			name:        "placeholders use defaults",
			row:         "41,October,Dev,Dev,-,-,,4,2024-10-07",
			wantWeek:    41,
			wantMonth:   "October",
			wantDate:    "2024-10-07",
			wantHours:   4,
			wantCat:     "Dev",
			wantProject: DefaultProjectID,
			wantCust:    DefaultCustomerName,
		},
		{name: "negative hours", row: "41,October,Dev,Dev,Acme,Apollo,,-1.0,2024-10-07", wantSkipped: true},
		{name: "zero hours", row: "41,October,Dev,Dev,Acme,Apollo,,0,2024-10-07", wantSkipped: true},
		{name: "too many hours", row: "41,October,Dev,Dev,Acme,Apollo,,25,2024-10-07", wantSkipped: true},
		{name: "text hours", row: "41,October,Dev,Dev,Acme,Apollo,,lots,2024-10-07", wantSkipped: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewStore()
			policy := NewAutoCreate(Defaults{}, testLogger())
			ctx := context.Background()
			if err := policy.Prepare(ctx, store); err != nil {
				t.Fatalf("Prepare: %v", err)
			}
			m := NewMaterializer(policy, HoursSkipOutOfRange, fixedNow)

			table := readCSV(t, fileHeader+tt.row+"\n")
			out, err := m.FromRow(ctx, store, table.Rows[0])
			if err != nil {
				t.Fatalf("FromRow: %v", err)
			}

			if tt.wantSkipped {
				if !out.Skipped || out.Draft != nil {
					t.Fatalf("expected skip, got %+v", out)
				}
				if len(out.Errors) != 0 {
					t.Errorf("skipped row reported errors: %+v", out.Errors)
				}
				return
			}
			if out.Draft == nil {
				t.Fatalf("expected draft, got %+v", out)
			}

			p := out.Draft.Params
			if p.WeekNumber != tt.wantWeek {
				t.Errorf("WeekNumber = %d, want %d", p.WeekNumber, tt.wantWeek)
			}
			if p.Month != tt.wantMonth {
				t.Errorf("Month = %q, want %q", p.Month, tt.wantMonth)
			}
			if got := p.Date.Time.Format("2006-01-02"); got != tt.wantDate {
				t.Errorf("Date = %s, want %s", got, tt.wantDate)
			}
			if p.Hours != tt.wantHours {
				t.Errorf("Hours = %v, want %v", p.Hours, tt.wantHours)
			}
			if p.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", p.Category, tt.wantCat)
			}
			if deref(p.Project) != tt.wantProject {
				t.Errorf("Project = %q, want %q", deref(p.Project), tt.wantProject)
			}
			if deref(p.Customer) != tt.wantCust {
				t.Errorf("Customer = %q, want %q", deref(p.Customer), tt.wantCust)
			}
			if out.Draft.Row != 2 {
				t.Errorf("Row = %d, want 2", out.Draft.Row)
			}
		})
	}
}

// =============================================================================
// FromInput
// =============================================================================

func TestMaterializer_FromInput(t *testing.T) {
	store := mocks.NewStore()
	store.SeedCustomer("Acme")
	store.SeedProject("Apollo", "Acme")
	m := NewMaterializer(NewValidateOnly(testLogger()), HoursRejectOutOfRange, fixedNow)
	ctx := context.Background()

	t.Run("derives week and month", func(t *testing.T) {
		out, err := m.FromInput(ctx, store, TimeEntryInput{
			Category: "dev", Subcategory: "api",
			Customer: strPtr("Acme"), Project: strPtr("Apollo"),
			Hours: floatPtr(8), Date: "2024-01-15",
		}, 1)
		if err != nil {
			t.Fatalf("FromInput: %v", err)
		}
		if out.Draft == nil {
			t.Fatalf("expected draft, got %+v", out.Errors)
		}
		if out.Draft.Params.WeekNumber != 3 || out.Draft.Params.Month != "January" {
			t.Errorf("derived %d/%s, want 3/January", out.Draft.Params.WeekNumber, out.Draft.Params.Month)
		}
	})

	t.Run("explicit week and month win", func(t *testing.T) {
		out, err := m.FromInput(ctx, store, TimeEntryInput{
			WeekNumber: intPtr(5), Month: strPtr("february"),
			Hours: floatPtr(1), Date: "2024-01-15",
		}, 1)
		if err != nil || out.Draft == nil {
			t.Fatalf("FromInput: %v %+v", err, out.Errors)
		}
		if out.Draft.Params.WeekNumber != 5 || out.Draft.Params.Month != "February" {
			t.Errorf("got %d/%s, want 5/February", out.Draft.Params.WeekNumber, out.Draft.Params.Month)
		}
	})

	t.Run("missing hours means zero", func(t *testing.T) {
		out, err := m.FromInput(ctx, store, TimeEntryInput{Date: "2024-01-15"}, 1)
		if err != nil || out.Draft == nil {
			t.Fatalf("FromInput: %v %+v", err, out.Errors)
		}
		if out.Draft.Params.Hours != 0 {
			t.Errorf("Hours = %v, want 0", out.Draft.Params.Hours)
		}
	})

	tests := []struct {
		name     string
		in       TimeEntryInput
		wantKind ErrorKind
	}{
		{"hours too high", TimeEntryInput{Hours: floatPtr(25), Date: "2024-01-15"}, KindInvalidHours},
		{"hours negative", TimeEntryInput{Hours: floatPtr(-1), Date: "2024-01-15"}, KindInvalidHours},
		{"date missing", TimeEntryInput{Hours: floatPtr(1)}, KindMissingField},
		{"date unparsable", TimeEntryInput{Hours: floatPtr(1), Date: "soon"}, KindInvalidDate},
		{"week out of range", TimeEntryInput{WeekNumber: intPtr(54), Hours: floatPtr(1), Date: "2024-01-15"}, KindInvalidWeekNumber},
		{"month unknown", TimeEntryInput{Month: strPtr("Smarch"), Hours: floatPtr(1), Date: "2024-01-15"}, KindInvalidMonth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := m.FromInput(ctx, store, tt.in, 4)
			if err != nil {
				t.Fatalf("FromInput: %v", err)
			}
			if out.Draft != nil {
				t.Fatalf("expected no draft, got %+v", out.Draft.Params)
			}
			if len(out.Errors) != 1 {
				t.Fatalf("got %d errors, want 1: %+v", len(out.Errors), out.Errors)
			}
			if out.Errors[0].Type != tt.wantKind {
				t.Errorf("Type = %q, want %q", out.Errors[0].Type, tt.wantKind)
			}
			if out.Errors[0].Row != 4 {
				t.Errorf("Row = %d, want 4", out.Errors[0].Row)
			}
		})
	}
}
