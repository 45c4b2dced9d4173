// Package core provides the business logic for timesheet imports.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Sentinel errors are checked first (errors.Is), then the message is matched
// against the pattern table below.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate: A record with this key already exists
//	        Sentinel: database.ErrConflict. Patterns: "duplicate key"
//
//	DB002 - Unique constraint: This value must be unique but already exists
//	        Patterns: "unique constraint", "violates unique"
//
//	DB003 - Foreign key: Referenced record does not exist
//	        Sentinel: database.ErrReference. Patterns: "foreign key constraint", "violates foreign key"
//
//	DB004 - Connection refused: Unable to connect to database
//	        Patterns: "connection refused"
//
//	DB005 - Connection reset: Database connection was interrupted
//	        Patterns: "connection reset"
//
//	DB006 - Timeout: Operation timed out
//	        Patterns: "timeout"
//
//	DB007 - Deadlock: Database was busy with conflicting operations
//	        Patterns: "deadlock"
//
//	DB008 - Not found: The requested record does not exist
//	        Sentinel: database.ErrNotFound
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid date. Patterns: "invalid date"
//	VAL002 - Invalid number. Patterns: "invalid number"
//	VAL003 - Required field is empty. Patterns: "required field"
//	VAL004 - Missing columns. Sentinel: ErrMissingColumns. Patterns: "missing required column"
//	VAL005 - Column not found. Patterns: "column not found"
//	VAL006 - Invalid status. Patterns: "invalid status"
//	VAL007 - Invalid request body. Sentinel: ErrInvalidInput
//	VAL008 - Constraint violated. Sentinel: database.ErrInvalid
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large. Sentinel: ErrFileTooLarge. Patterns: "file too large"
//	FILE002 - Unreadable file. Sentinel: ErrCorruptFile. Patterns: "invalid csv"
//	FILE003 - Encoding error. Patterns: "encoding error"
//	FILE004 - No file. Sentinel: ErrNoFile. Patterns: "no file provided"
//	FILE005 - Empty file. Sentinel: ErrEmptyFile. Patterns: "empty file"
//	FILE006 - Unsupported format. Sentinel: ErrUnsupportedFormat
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Import cancelled. Sentinel: context.Canceled
//	IMP002 - System busy. Sentinel: ErrTooManyImports
//	IMP003 - Import timed out. Sentinel: context.DeadlineExceeded
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Too many requests. Patterns: "rate limit"
//
// # Authentication (AUTH001-AUTH099)
//
// Written by the API key middleware, never produced by MapError.
//
//	AUTH001 - API key missing
//	AUTH002 - API key not accepted
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check application logs for the technical
// error when users report ERR000.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/timesheet/internal/database"
)

var (
	// ErrFileTooLarge rejects uploads over the configured size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoFile is returned when an upload carries no file part.
	ErrNoFile = errors.New("no file provided")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// sentinelMessage maps an error in the chain to a user message.
type sentinelMessage struct {
	err error
	msg UserMessage
}

// sentinelMessages are checked before patterns. Order matters: the first
// sentinel found in the chain wins.
var sentinelMessages = []sentinelMessage{
	{ErrMissingColumns, UserMessage{
		Message: "Required columns are missing from the file",
		Action:  "Add the missing columns: Week Number, Month, Category, Subcategory, Customer, Project, Task Description, Hours, Date",
		Code:    "VAL004",
	}},
	{ErrInvalidInput, UserMessage{
		Message: "The request contains invalid fields",
		Action:  "Correct the listed fields and resubmit",
		Code:    "VAL007",
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller files",
		Code:    "FILE001",
	}},
	{ErrCorruptFile, UserMessage{
		Message: "The file could not be read",
		Action:  "Save the file again as CSV or XLSX and retry",
		Code:    "FILE002",
	}},
	{ErrNoFile, UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV or XLSX file to upload",
		Code:    "FILE004",
	}},
	{ErrEmptyFile, UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a file with a header row and data rows",
		Code:    "FILE005",
	}},
	{ErrUnsupportedFormat, UserMessage{
		Message: "Unsupported file type",
		Action:  "Upload a .csv, .txt, .xlsx or .xlsm file",
		Code:    "FILE006",
	}},
	{ErrTooManyImports, UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP002",
	}},
	{context.Canceled, UserMessage{
		Message: "Import was cancelled",
		Action:  "Start a new import when ready",
		Code:    "IMP001",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Import timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "IMP003",
	}},
	{database.ErrNotFound, UserMessage{
		Message: "The requested record does not exist",
		Action:  "Check the name or id and try again",
		Code:    "DB008",
	}},
	{database.ErrConflict, UserMessage{
		Message: "A record with this key already exists",
		Action:  "Use a different name or update the existing record",
		Code:    "DB001",
	}},
	{database.ErrReference, UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Create the customer, project or project manager first",
		Code:    "DB003",
	}},
	{database.ErrInvalid, UserMessage{
		Message: "A value is outside its allowed range",
		Action:  "Check hours (0-24) and week numbers (1-53)",
		Code:    "VAL008",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Patterns are matched using strings.Contains, so partial matches work.
// The first matching pattern wins, so order matters:
//   - More specific patterns should come before general ones
//   - Multiple patterns can map to the same error code
var errorPatterns = []errorPattern{
	// =========================================================================
	// Database Constraint Errors (DB001-DB003)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Use a different name or update the existing record",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in your file",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Review your data for duplicate key values",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key constraint",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Create the customer, project or project manager first",
			Code:    "DB003",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Create the customer, project or project manager first",
			Code:    "DB003",
		},
	},

	// =========================================================================
	// Database Connection Errors (DB004-DB007)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// =========================================================================
	// Validation Errors (VAL001-VAL006)
	// =========================================================================
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "Invalid date format detected",
			Action:  "Use YYYY-MM-DD, MM/DD/YYYY, or Jan 15, 2024",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "Invalid number format detected",
			Action:  "Use a plain decimal number for hours",
			Code:    "VAL002",
		},
	},
	{
		pattern: "required field",
		msg: UserMessage{
			Message: "Required field is empty",
			Action:  "Ensure all required columns have values",
			Code:    "VAL003",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "Required columns are missing from the file",
			Action:  "Check that all required columns are present in your file",
			Code:    "VAL004",
		},
	},
	{
		pattern: "column not found",
		msg: UserMessage{
			Message: "Expected column not found in file",
			Action:  "Verify column headers match the template exactly",
			Code:    "VAL005",
		},
	},
	{
		pattern: "invalid status",
		msg: UserMessage{
			Message: "Value is not in the allowed list",
			Action:  "Use one of active, inactive, completed, on_hold",
			Code:    "VAL006",
		},
	},

	// =========================================================================
	// File Errors (FILE002-FILE003)
	// =========================================================================
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "The file could not be read",
			Action:  "Ensure file is comma-separated with consistent columns",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Sentinels in the error chain win; otherwise the first matching pattern
// (case-insensitive) is used, and ERR000 when nothing matches.
//
// Example:
//
//	err := fmt.Errorf("create customer: %w", database.ErrConflict)
//	msg := MapError(err)
//	// msg.Code == "DB001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error (for logs) with its user message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
