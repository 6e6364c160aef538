// Package apperr defines the sentinel errors shared across notable's layers.
// Callers wrap them with fmt.Errorf("%w: ...") and match with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransport reports a failed call to the transcription or annotation service.
	ErrTransport = errors.New("transport error")
	// ErrExtraction reports a model reply without a recoverable JSON span.
	ErrExtraction = errors.New("extraction error")
	// ErrParse reports a recovered span that is not valid JSON.
	ErrParse = errors.New("parse error")
	// ErrSchemaValidation reports valid JSON that does not match the proper noun schema.
	ErrSchemaValidation = errors.New("schema validation error")

	// ErrStaleRun reports a pipeline run superseded by a newer one for the same session.
	ErrStaleRun = errors.New("run superseded")
)
