package core

import "errors"

// Export/import conditions surfaced to the operator. They are matched with
// errors.Is and mapped to user messages by MapError.
var (
	// ErrNothingToExport is a notice, not a failure: the entity has no records.
	ErrNothingToExport = errors.New("nothing to export")

	// ErrNoValidRecords means the file had no data rows that survived
	// mapping. No backend call is made.
	ErrNoValidRecords = errors.New("no valid records found in file")

	// ErrEmptyFile is an upload with no content at all.
	ErrEmptyFile = errors.New("empty file")

	// ErrFileTooLarge is an upload over the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrOperationBusy is returned when an export or import for the same
	// entity is already running. The running job is left untouched.
	ErrOperationBusy = errors.New("operation already in progress")

	// ErrUnknownEntity is an entity key with no column map.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrUnknownResource is a resource key that is not registered at all.
	ErrUnknownResource = errors.New("unknown resource")

	// ErrNoFile is an import request without a file part.
	ErrNoFile = errors.New("no file provided")

	// ErrJobNotFound is an unknown or expired job id.
	ErrJobNotFound = errors.New("job not found")

	// ErrDownloadGone is returned when a finished export was already
	// downloaded or has expired.
	ErrDownloadGone = errors.New("download no longer available")

	// ErrJobRunning is returned when a download is requested before the job
	// finished.
	ErrJobRunning = errors.New("job still running")
)
