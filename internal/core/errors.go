package core

import (
	"errors"
	"fmt"
)

// Request-level failures. Each is detected before any row is streamed.
var (
	ErrNoFile             = errors.New("no file provided")
	ErrNotCSV             = errors.New("only CSV files are allowed")
	ErrFileTooLarge       = errors.New("file too large")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// StreamError aborts an import because the file itself could not be read
// as CSV. No report is produced.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("invalid csv: %v", e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// CancelledError stops an import whose context ended during persistence.
// The Inserted rows before AtRow are already committed.
type CancelledError struct {
	AtRow    int
	Inserted int
	Err      error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("import cancelled at row %d after %d inserts: %v", e.AtRow, e.Inserted, e.Err)
}

func (e *CancelledError) Unwrap() error {
	return e.Err
}
