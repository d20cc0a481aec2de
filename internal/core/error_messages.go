package core

// error_messages.go maps technical errors to messages with support codes.
//
//	SES001  validation session not found   upload the file again
//	SES002  sheet not found in session     refresh the preview
//	SES003  row not found in sheet         refresh the preview
//	REC001  record not found               refresh the list
//	IMP001  import failed                  retry the import
//	IMP002  no record repository           server misconfiguration
//	FILE001 file too large                 split the workbook
//	FILE002 decode spreadsheet             re-save as .xlsx
//	FILE003 unsupported file type          upload .xlsx or .csv
//	FILE004 no file provided               select a file
//	FILE005 workbook has no sheets         add a sheet with data
//	DB001   duplicate key / unique         check for duplicates
//	DB002   foreign key                    contact support
//	DB003   connection refused             retry later
//	DB004   connection reset               retry
//	DB005   deadlock                       retry
//	UPL001  too many uploads               retry shortly
//	UPL002  context canceled               retry
//	UPL003  context deadline exceeded      retry
//	RATE001 rate limit                     slow down
//	REQ001  invalid request body           fix the request
//	ERR000  anything else                  check the logs
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific causes (database, cancellation) are listed before
// the wrappers that carry them (import failed).

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Database
	{"duplicate key", UserMessage{"A record with this ID already exists", "Check the sheet for duplicate rows", "DB001"}},
	{"violates unique", UserMessage{"A duplicate value was found", "Check the sheet for duplicate rows", "DB001"}},
	{"foreign key", UserMessage{"Referenced record does not exist", "Please contact support", "DB002"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB003"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB004"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB005"}},

	// Request lifecycle
	{"too many concurrent uploads", UserMessage{"System is busy processing other uploads", "Please wait a moment and try again", "UPL001"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "UPL002"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Please try again; the sheet is still in your preview", "UPL003"}},

	// Session
	{"validation session not found", UserMessage{"Your preview has expired or was never created", "Upload the file again", "SES001"}},
	{"sheet not found", UserMessage{"Sheet is not in the current preview", "Refresh the preview; it may already be imported", "SES002"}},
	{"row not found", UserMessage{"Row is not in the current preview", "Refresh the preview", "SES003"}},
	{"record not found", UserMessage{"Record not found", "Refresh the list", "REC001"}},

	// Import
	{"import failed", UserMessage{"The sheet could not be saved", "Try the import again", "IMP001"}},
	{"no record repository", UserMessage{"Imports are not available", "Please contact support", "IMP002"}},

	// Files
	{"file too large", UserMessage{"File exceeds the maximum upload size", "Split the workbook into smaller files", "FILE001"}},
	{"request body too large", UserMessage{"File exceeds the maximum upload size", "Split the workbook into smaller files", "FILE001"}},
	{"decode spreadsheet", UserMessage{"The file could not be read as a spreadsheet", "Re-save the file as .xlsx and upload again", "FILE002"}},
	{"unsupported file type", UserMessage{"Only .xlsx and .csv files are accepted", "Upload an .xlsx or .csv file", "FILE003"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a spreadsheet to upload", "FILE004"}},
	{"workbook has no sheets", UserMessage{"The uploaded workbook has no sheets", "Add a sheet with a header row and data", "FILE005"}},

	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
	{"invalid request body", UserMessage{"The request could not be understood", "Check the request and try again", "REQ001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Unknown
// errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matched a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
