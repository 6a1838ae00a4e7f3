package core

// error_messages.go maps technical errors to messages a church
// administrator can act on. Each message carries a code staff can quote
// when asking for help:
//
//	FILE001 no file selected          FILE002 not a .csv file
//	FILE003 invalid UTF-8             FILE004 file too large
//	FILE005 malformed CSV
//	IMP001  too many imports running  IMP002  import timed out
//	IMP003  request cancelled
//	DB001   duplicate value           DB002   referenced record missing
//	DB003   check constraint          DB004   database unavailable
//	VAL001  invalid input             ACT001  unknown action
//	ACT002  nothing selected          NF001   record not found
//	RATE001 rate limited              ERR000  anything else

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var sentinelMessages = []struct {
	target error
	msg    UserMessage
}{
	{ErrNoFile, UserMessage{"No file selected.", "Choose a CSV file to import", "FILE001"}},
	{ErrNotCSV, UserMessage{"File must be a CSV.", "Save the spreadsheet as .csv and try again", "FILE002"}},
	{ErrInvalidEncoding, UserMessage{"File is not valid UTF-8 text", "Save the file with UTF-8 encoding", "FILE003"}},
	{ErrFileTooLarge, UserMessage{"File exceeds the maximum upload size", "Split the file into smaller files", "FILE004"}},
	{ErrTooManyImports, UserMessage{"Too many imports are running", "Please wait a moment and try again", "IMP001"}},
	{context.DeadlineExceeded, UserMessage{"The import timed out", "Try a smaller file or try again later", "IMP002"}},
	{context.Canceled, UserMessage{"The request was cancelled", "Please try again", "IMP003"}},
	{ErrUnknownAction, UserMessage{"Unknown action", "Pick one of the listed actions", "ACT001"}},
	{ErrNoSelection, UserMessage{"No members selected", "Select at least one member", "ACT002"}},
	{ErrNotFound, UserMessage{"Record not found", "Refresh the page and try again", "NF001"}},
	{ErrConflict, UserMessage{"This value already exists", "Use a different name", "DB001"}},
}

// pgCodeMessages is keyed by SQLSTATE.
var pgCodeMessages = map[string]UserMessage{
	"23505": {"This value already exists", "Use a different name", "DB001"},
	"23503": {"Referenced record does not exist", "Check the selected members and try again", "DB002"},
	"23514": {"A value was rejected by the database", "Check the data and try again", "DB003"},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is the fallback for errors that lost their type on the way up.
var errorPatterns = []errorPattern{
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB004"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again. If the problem continues, contact support",
	Code:    "ERR000",
}

// MapError converts an error into a UserMessage. Returns the zero value
// for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var verr ValidationError
	if errors.As(err, &verr) {
		return UserMessage{Message: verr.Message, Action: "Correct the input and try again", Code: "VAL001"}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.target) {
			return s.msg
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if msg, ok := pgCodeMessages[pgErr.Code]; ok {
			return msg
		}
	}

	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return UserMessage{
			Message: fmt.Sprintf("The file is not a valid CSV (line %d)", parseErr.Line),
			Action:  "Check quoting on that line and try again",
			Code:    "FILE005",
		}
	}

	lower := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(lower, p.pattern) {
			return p.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders an error as "Message. Action (Code)".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Code == "" {
		return ""
	}
	return fmt.Sprintf("%s. %s (%s)", strings.TrimSuffix(msg.Message, "."), msg.Action, msg.Code)
}

// IsUserFacing reports whether err maps to something more specific than
// the generic message.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}

// IsClientError reports whether err was caused by the request rather than
// the server.
func IsClientError(err error) bool {
	var verr ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, ErrNoFile),
		errors.Is(err, ErrNotCSV),
		errors.Is(err, ErrInvalidEncoding),
		errors.Is(err, ErrFileTooLarge),
		errors.Is(err, ErrUnknownAction),
		errors.Is(err, ErrNoSelection),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict):
		return true
	}
	var parseErr *csv.ParseError
	return errors.As(err, &parseErr)
}
