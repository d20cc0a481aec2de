package core

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound = errors.New("validation session not found")
	ErrSheetNotFound   = errors.New("sheet not found in session")
	ErrRowNotFound     = errors.New("row not found in sheet")
	ErrRecordNotFound  = errors.New("record not found")
)

// ParseError reports a cell that could not be converted.
type ParseError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %s", e.Field, e.Value, e.Reason)
}

// SheetPreconditionError is a header, column or empty-sheet failure that
// stops validation of a single sheet.
type SheetPreconditionError struct {
	Sheet   string
	Row     int
	Message string
}

func (e *SheetPreconditionError) Error() string {
	return fmt.Sprintf("sheet %q: %s", e.Sheet, e.Message)
}

// SheetError converts the failure into its reported form.
func (e *SheetPreconditionError) SheetError() SheetError {
	return SheetError{Row: e.Row, Error: e.Message}
}

// PersistenceError reports a failed commit. Restored tells whether the sheet
// is back in the session so the import can be retried.
type PersistenceError struct {
	Sheet    string
	Restored bool
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("import failed: persist sheet %q: %v", e.Sheet, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// SessionNotFound, SheetNotFound and RowNotFound wrap the sentinel errors
// with the offending key.
func SessionNotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
}

func SheetNotFound(name string) error {
	return fmt.Errorf("%w: %q", ErrSheetNotFound, name)
}

func RowNotFound(sheet string, rowNumber int) error {
	return fmt.Errorf("%w: %q row %d", ErrRowNotFound, sheet, rowNumber)
}
