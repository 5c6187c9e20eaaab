package core

// error_messages.go maps technical errors to operator-facing messages with a
// code for support reference.
//
// # Codes
//
//	AUTH001 - Session expired          (any 401 from the backend)
//	AUTH002 - Permission denied        (403)
//
//	API001  - Not found                (404)
//	API002  - Rejected by the backend  (400, 422; the backend's message is shown)
//	API003  - Conflict                 (409; the backend's message is shown)
//	API004  - Backend error            (5xx)
//	API005  - Backend rate limited     (429)
//	API006  - Backend unreachable      ("connection refused", "no such host")
//	API007  - Backend timed out        ("deadline exceeded", "timeout")
//
//	EXP001  - Nothing to export
//	EXP002  - Operation already running for this entity
//	EXP003  - Job not found or expired
//	EXP004  - Download already taken or expired
//	EXP005  - No batches selected
//	EXP006  - Batch out of range
//	EXP007  - Too many jobs running
//	EXP008  - Download requested before the export finished
//
//	IMP001  - No valid records in file
//	IMP002  - Empty file
//	IMP003  - File too large
//	IMP004  - No file provided
//
//	CSV001  - Unsupported entity
//
//	RATE001 - Too many requests to this server
//	ERR000  - Anything else; check the logs for the original error
//
// Sentinels are matched with errors.Is first, then backend status codes, then
// case-insensitive substrings of the error text. The first match wins.

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/scentadmin/internal/api"
	"github.com/JonMunkholm/scentadmin/internal/batch"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

// Notice reports whether the message is informational rather than a failure.
func (m UserMessage) Notice() bool {
	return m.Code == "EXP001"
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

var sentinelMessages = []sentinelMessage{
	{api.ErrUnauthorized, UserMessage{"Your session has expired", "Please sign in again", "AUTH001"}},

	{ErrNothingToExport, UserMessage{"There is nothing to export", "Add records before exporting", "EXP001"}},
	{ErrOperationBusy, UserMessage{"An export or import is already running for this entity", "Wait for it to finish and try again", "EXP002"}},
	{ErrJobNotFound, UserMessage{"That job was not found", "It may have expired. Start a new export", "EXP003"}},
	{ErrDownloadGone, UserMessage{"This file is no longer available", "Run the export again to get a new copy", "EXP004"}},
	{batch.ErrNoBatchesSelected, UserMessage{"No batches selected", "Select at least one batch to export", "EXP005"}},
	{batch.ErrBatchOutOfRange, UserMessage{"A selected batch does not exist", "Reload the page to refresh the batch list", "EXP006"}},
	{ErrTooManyJobs, UserMessage{"The system is busy with other jobs", "Please wait a moment and try again", "EXP007"}},

	{ErrNoValidRecords, UserMessage{"No valid records found in file", "Check that the file has a header row and that every row has a name", "IMP001"}},
	{ErrEmptyFile, UserMessage{"The uploaded file is empty", "Upload a CSV file exported from this tool", "IMP002"}},
	{ErrFileTooLarge, UserMessage{"The file exceeds the upload size limit", "Split the file into smaller files", "IMP003"}},

	{ErrJobRunning, UserMessage{"The export is still running", "Wait for it to finish", "EXP008"}},
	{ErrNoFile, UserMessage{"No file was selected", "Please select a CSV file to upload", "IMP004"}},
	{ErrUnknownResource, UserMessage{"That page does not exist", "Pick an entry from the sidebar", "API001"}},
	{ErrUnknownEntity, UserMessage{"This entity does not support CSV export or import", "Choose perfumes, notes, perfumers or brands", "CSV001"}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns cover transport errors that carry no sentinel. Specific
// patterns come before general ones.
var errorPatterns = []errorPattern{
	{"connection refused", UserMessage{"Unable to reach the backend", "Please try again in a few moments", "API006"}},
	{"no such host", UserMessage{"Unable to reach the backend", "Check the API_BASE_URL setting", "API006"}},
	{"deadline exceeded", UserMessage{"The backend took too long to respond", "Please try again later", "API007"}},
	{"timeout", UserMessage{"The backend took too long to respond", "Please try again later", "API007"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a CSV file to upload", "IMP004"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// defaultMessage is returned when nothing matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return statusMessage(apiErr)
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func statusMessage(e *api.Error) UserMessage {
	switch {
	case e.Status == http.StatusForbidden:
		return UserMessage{"You do not have permission to do that", "Ask an administrator for access", "AUTH002"}
	case e.Status == http.StatusNotFound:
		return UserMessage{"The requested item was not found", "It may have been deleted. Reload the list", "API001"}
	case e.Status == http.StatusConflict:
		return UserMessage{e.Message, "Review the values and try again", "API003"}
	case e.Status == http.StatusTooManyRequests:
		return UserMessage{"The backend is rate limiting requests", "Wait a moment and try again", "API005"}
	case e.Status >= 500:
		return UserMessage{"The backend encountered an error", "Please try again later", "API004"}
	case e.Status >= 400:
		return UserMessage{e.Message, "Correct the highlighted values and try again", "API002"}
	default:
		return defaultMessage
	}
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than
// ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with its mapped message. Error returns
// the user message; Unwrap keeps the original for logging.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
