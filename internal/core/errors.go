package core

import "errors"

// Request-level import failures. None of them persist anything.
var (
	ErrNoFile          = errors.New("No file selected.")
	ErrNotCSV          = errors.New("File must be a CSV.")
	ErrInvalidEncoding = errors.New("file is not valid UTF-8")
	ErrFileTooLarge    = errors.New("file exceeds the maximum upload size")
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("already exists")
	ErrUnknownAction = errors.New("unknown action")
	ErrNoSelection   = errors.New("no members selected")
)
