package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/timesheet/internal/database"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"name":"Acme","status":"active"}`, ""},
		{"unknown field", `{"name":"Acme","owner":"me"}`, `unknown field "owner"`},
		{"empty body", ``, "request body is empty"},
		{"trailing data", `{"name":"Acme"} {"name":"Other"}`, "unexpected data"},
		{"wrong type", `{"name":42}`, "cannot unmarshal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in CustomerInput
			err := DecodeJSON(strings.NewReader(tt.body), &in)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("error = %v, want ErrInvalidInput", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDecodeEntries(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{"array", `[{"date":"2024-10-07","hours":8},{"date":"2024-10-08"}]`, 2, false},
		{"single object", ` {"date":"2024-10-07","customer":"Acme"}`, 1, false},
		{"empty array", `[]`, 0, false},
		{"unknown field in element", `[{"date":"2024-10-07","billable":true}]`, 0, true},
		{"not json", `hello`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEntries([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("got %d entries, want %d", len(got), tt.want)
			}
		})
	}
}

func TestTimeEntryInput_Validate(t *testing.T) {
	tests := []struct {
		name       string
		in         TimeEntryInput
		wantFields []string
	}{
		{"minimal", TimeEntryInput{Date: "2024-10-07"}, nil},
		{"us date", TimeEntryInput{Date: "10/7/2024", Hours: floatPtr(24)}, nil},
		{"everything wrong", TimeEntryInput{WeekNumber: intPtr(0), Month: strPtr("Thermidor"), Hours: floatPtr(24.5)}, []string{"date", "week_number", "month", "hours"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.wantFields == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ie *InputError
			if !errors.As(err, &ie) {
				t.Fatalf("error = %v, want *InputError", err)
			}
			var got []string
			for _, f := range ie.Fields {
				got = append(got, f.Field)
			}
			if strings.Join(got, ",") != strings.Join(tt.wantFields, ",") {
				t.Errorf("fields = %v, want %v", got, tt.wantFields)
			}
		})
	}
}

func TestTimeEntryUpdate_Merge(t *testing.T) {
	customer := "Acme"
	stored := database.TimeEntry{
		ID: 7, WeekNumber: 41, Month: "October",
		Category: "Dev", Subcategory: "Api",
		Customer: &customer,
		Hours:    8,
		Date:     pgtype.Date{Time: time.Date(2024, 10, 7, 0, 0, 0, 0, time.UTC), Valid: true},
	}

	t.Run("keeps stored fields", func(t *testing.T) {
		in := TimeEntryUpdate{Hours: floatPtr(2)}.merge(stored)
		if in.Date != "2024-10-07" || *in.WeekNumber != 41 || *in.Month != "October" || *in.Hours != 2 {
			t.Errorf("merged = %+v", in)
		}
		if deref(in.Customer) != "Acme" {
			t.Errorf("Customer = %q", deref(in.Customer))
		}
	})

	t.Run("new date clears derived fields", func(t *testing.T) {
		in := TimeEntryUpdate{Date: strPtr("2024-03-04")}.merge(stored)
		if in.WeekNumber != nil || in.Month != nil {
			t.Errorf("week/month kept: %v/%v", in.WeekNumber, in.Month)
		}
	})

	t.Run("explicit week with new date", func(t *testing.T) {
		in := TimeEntryUpdate{Date: strPtr("2024-03-04"), WeekNumber: intPtr(12)}.merge(stored)
		if in.WeekNumber == nil || *in.WeekNumber != 12 || in.Month != nil {
			t.Errorf("merged week/month = %v/%v", in.WeekNumber, in.Month)
		}
	})
}

func TestProjectInput_Params(t *testing.T) {
	p := ProjectInput{ProjectID: " Big Launch-2 ", Customer: strPtr("  "), Description: strPtr("x")}.params()
	if p.ProjectID != "Big_Launch_2" || p.Name != "Big_Launch_2" {
		t.Errorf("ids = %q/%q", p.ProjectID, p.Name)
	}
	if p.Customer != nil {
		t.Errorf("blank customer kept: %q", *p.Customer)
	}
	if p.Status != "active" {
		t.Errorf("Status = %q, want active", p.Status)
	}
}
