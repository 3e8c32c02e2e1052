package dox

import "errors"

// Terminal error conditions of the extraction workflow. Callers match these
// with errors.Is; the wrapped message carries the vendor detail.
var (
	// ErrAuth indicates the identity endpoint rejected the client credentials.
	ErrAuth = errors.New("uaa authentication failed")

	// ErrUpload indicates job creation failed or returned no job ID.
	ErrUpload = errors.New("document upload failed")

	// ErrJobFailed indicates the vendor reported the extraction job as FAILED.
	ErrJobFailed = errors.New("document extraction failed")

	// ErrPollTimeout indicates the poll attempt budget was exhausted.
	ErrPollTimeout = errors.New("extraction timed out")

	// ErrUnknownStatus indicates the vendor returned a status value outside
	// the documented enumeration.
	ErrUnknownStatus = errors.New("unknown job status")

	// ErrFieldMissing indicates a required field was absent from an otherwise
	// successful extraction result.
	ErrFieldMissing = errors.New("required field not found in extraction results")
)
