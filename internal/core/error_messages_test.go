package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/timesheet/internal/database"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "conflict sentinel",
			err:         fmt.Errorf("create customer: %w", database.ErrConflict),
			wantCode:    "DB001",
			wantMessage: "A record with this key already exists",
		},
		{
			name:        "duplicate key text",
			err:         errors.New("ERROR: duplicate key value violates unique constraint"),
			wantCode:    "DB001",
			wantMessage: "A record with this key already exists",
		},
		{
			name:        "unique constraint maps correctly",
			err:         errors.New("ERROR: unique constraint violated"),
			wantCode:    "DB002",
			wantMessage: "This value must be unique but already exists",
		},
		{
			name:        "reference sentinel",
			err:         fmt.Errorf("create project: %w", database.ErrReference),
			wantCode:    "DB003",
			wantMessage: "Referenced record does not exist",
		},
		{
			name:        "not found sentinel",
			err:         database.ErrNotFound,
			wantCode:    "DB008",
			wantMessage: "The requested record does not exist",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "deadline wins over timeout pattern",
			err:         fmt.Errorf("import x.csv: %w", context.DeadlineExceeded),
			wantCode:    "IMP003",
			wantMessage: "Import timed out",
		},
		{
			name:        "missing columns",
			err:         &MissingColumnsError{Columns: []string{"Hours"}},
			wantCode:    "VAL004",
			wantMessage: "Required columns are missing from the file",
		},
		{
			name:        "invalid input",
			err:         &InputError{Fields: []FieldError{{Field: "date", Message: "is required"}}},
			wantCode:    "VAL007",
			wantMessage: "The request contains invalid fields",
		},
		{
			name:        "unsupported format",
			err:         fmt.Errorf("%w: \".pdf\"", ErrUnsupportedFormat),
			wantCode:    "FILE006",
			wantMessage: "Unsupported file type",
		},
		{
			name:        "empty file",
			err:         fmt.Errorf("a.csv: %w", ErrEmptyFile),
			wantCode:    "FILE005",
			wantMessage: "The uploaded file is empty",
		},
		{
			name:        "too many imports",
			err:         ErrTooManyImports,
			wantCode:    "IMP002",
			wantMessage: "System is busy processing other imports",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("DEADLOCK detected"),
			wantCode:    "DB007",
			wantMessage: "Database was busy with conflicting operations",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(errors.New("deadlock detected"))

	expected := "Database was busy with conflicting operations (Code: DB007). Please try again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", database.ErrConflict, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("insert: %w", database.ErrConflict)
		userErr := NewUserError(techErr)

		if userErr.Error() != "A record with this key already exists" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, database.ErrConflict) {
			t.Error("Unwrap() should expose the original chain")
		}
	})
}
