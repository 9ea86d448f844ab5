// Package apperr defines the error envelope shared by every pipeline stage.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind tags the stage-level failure class.
type Kind string

const (
	KindValidation  Kind = "validation_error"
	KindExtraction  Kind = "extraction_error"
	KindProvider    Kind = "provider_error"
	KindSizeLimit   Kind = "size_limit_exceeded"
	KindUnsupported Kind = "unsupported_type"
)

// Error is the uniform failure envelope returned to callers.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// DefaultStatus maps a kind to its HTTP status.
func DefaultStatus(k Kind) int {
	switch k {
	case KindValidation, KindUnsupported:
		return http.StatusBadRequest
	case KindSizeLimit:
		return http.StatusRequestEntityTooLarge
	case KindExtraction:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// New creates an envelope with the kind's default status.
func New(k Kind, message string, cause error) *Error {
	return &Error{Kind: k, Message: message, Status: DefaultStatus(k), Cause: cause}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...), nil)
}

func Extraction(message string, cause error) *Error {
	return New(KindExtraction, message, cause)
}

func Provider(message string, cause error) *Error {
	return New(KindProvider, message, cause)
}

// Quota is a provider error surfaced with 429 semantics.
func Quota(message string, cause error) *Error {
	e := New(KindProvider, message, cause)
	e.Status = http.StatusTooManyRequests
	return e
}

func SizeLimit(size, limit int64) *Error {
	return New(KindSizeLimit, fmt.Sprintf("File size too large: %d bytes exceeds the %d byte limit. Please upload files smaller than %s.", size, limit, humanMiB(limit)), nil)
}

func Unsupported(mediaType string, supported []string) *Error {
	return New(KindUnsupported, fmt.Sprintf("Unsupported file type: %s. Supported types: %v", mediaType, supported), nil)
}

// From returns the envelope carried by err, wrapping foreign errors as
// provider errors.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Provider("Translation service temporarily unavailable", err)
}

// KindOf returns the kind of err, or "" when err carries no envelope.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries an envelope of kind k.
func Is(err error, k Kind) bool {
	return KindOf(err) == k
}

func humanMiB(n int64) string {
	if n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}
