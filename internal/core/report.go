package core

import (
	"errors"
	"fmt"
)

// NoticeLevel is the severity of a user-visible notice.
type NoticeLevel string

const (
	LevelSuccess NoticeLevel = "success"
	LevelWarning NoticeLevel = "warning"
	LevelError   NoticeLevel = "error"
)

// Notice is a one-line message shown to the user after an action.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// ImportNotices summarizes a finished import:
//   - any member created: a success notice with the count
//   - none created: a "No valid members to import." warning
//   - any row rejected: an extra warning with the number of skipped rows
//
// A dry run reports what would have been created instead.
func ImportNotices(o ImportOutcome) []Notice {
	var notices []Notice

	switch {
	case o.DryRun && o.Valid > 0:
		notices = append(notices, Notice{LevelSuccess,
			fmt.Sprintf("Dry run: %d members would be imported.", o.Valid)})
	case !o.DryRun && o.CreatedCount() > 0:
		notices = append(notices, Notice{LevelSuccess,
			fmt.Sprintf("Successfully imported %d members.", o.CreatedCount())})
	default:
		notices = append(notices, Notice{LevelWarning, "No valid members to import."})
	}

	if o.ErrorCount() > 0 {
		notices = append(notices, Notice{LevelWarning,
			fmt.Sprintf("Errors in import: %d rows skipped. Check data.", o.ErrorCount())})
	}
	return notices
}

// ImportFailureNotice reports a request-level import failure. Missing and
// non-CSV files keep their own wording; everything else is prefixed.
func ImportFailureNotice(err error) Notice {
	switch {
	case errors.Is(err, ErrNoFile):
		return Notice{LevelError, ErrNoFile.Error()}
	case errors.Is(err, ErrNotCSV):
		return Notice{LevelError, ErrNotCSV.Error()}
	}
	return Notice{LevelError, "Error importing members: " + FormatUserError(err)}
}
