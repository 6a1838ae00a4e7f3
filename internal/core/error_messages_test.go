package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{"nil error returns empty", nil, "", ""},
		{"no file", ErrNoFile, "FILE001", "No file selected."},
		{"not csv", ErrNotCSV, "FILE002", "File must be a CSV."},
		{"wrapped encoding error", fmt.Errorf("read header: %w", ErrInvalidEncoding), "FILE003", "File is not valid UTF-8 text"},
		{"file too large", ErrFileTooLarge, "FILE004", "File exceeds the maximum upload size"},
		{"too many imports", ErrTooManyImports, "IMP001", "Too many imports are running"},
		{"deadline", fmt.Errorf("create members: %w", context.DeadlineExceeded), "IMP002", "The import timed out"},
		{"unknown action", fmt.Errorf("%w: purge", ErrUnknownAction), "ACT001", "Unknown action"},
		{"validation", ValidationError{Field: "name", Message: "Group name is required."}, "VAL001", "Group name is required."},
		{
			"unique violation",
			fmt.Errorf("create group: %w", &pgconn.PgError{Code: "23505"}),
			"DB001", "This value already exists",
		},
		{
			"check violation",
			&pgconn.PgError{Code: "23514"},
			"DB003", "A value was rejected by the database",
		},
		{
			"csv parse error",
			&csv.ParseError{StartLine: 4, Line: 4, Column: 2, Err: csv.ErrQuote},
			"FILE005", "The file is not a valid CSV (line 4)",
		},
		{"connection refused", errors.New("dial tcp: connection refused"), "DB004", "Unable to connect to database"},
		{"unknown", errors.New("something odd"), "ERR000", "An unexpected error occurred"},
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

func TestMapError_ConflictFromStore(t *testing.T) {
	err := fmt.Errorf("%w: %w", ErrConflict, &pgconn.PgError{Code: "23505"})
	if got := MapError(err).Code; got != "DB001" {
		t.Errorf("MapError() code = %q, want DB001", got)
	}
}

func TestFormatUserError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrNotCSV, "File must be a CSV. Save the spreadsheet as .csv and try again (FILE002)"},
		{ErrTooManyImports, "Too many imports are running. Please wait a moment and try again (IMP001)"},
	}
	for _, tt := range tests {
		if got := FormatUserError(tt.err); got != tt.want {
			t.Errorf("FormatUserError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestIsClientError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrNoFile, true},
		{fmt.Errorf("x: %w", ErrFileTooLarge), true},
		{ValidationError{Message: "bad"}, true},
		{ErrNotFound, true},
		{&csv.ParseError{Err: csv.ErrBareQuote}, true},
		{ErrTooManyImports, false},
		{errors.New("boom"), false},
	}
	for _, tt := range tests {
		if got := IsClientError(tt.err); got != tt.want {
			t.Errorf("IsClientError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestIsUserFacing(t *testing.T) {
	if !IsUserFacing(ErrNoSelection) {
		t.Error("IsUserFacing(ErrNoSelection) = false, want true")
	}
	if IsUserFacing(errors.New("boom")) {
		t.Error("IsUserFacing(generic) = true, want false")
	}
	if IsUserFacing(nil) {
		t.Error("IsUserFacing(nil) = true, want false")
	}
}
