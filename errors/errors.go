// Package errors defines the error taxonomy for merge operations.
// Every failure surfaced by a merge is one of the types below, or a
// context cancellation propagated unchanged; classification helpers
// are provided so callers can branch without string matching.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// ValidationError reports invalid arguments detected before any I/O:
// an empty input list, a nil output, a non-http(s) URL.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validationf builds a ValidationError with a formatted reason.
func Validationf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// FetchError reports a failed chunk fetch: a non-2xx response or a
// transport failure. No retry is attempted here.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FormatError reports structurally malformed chunk content, such as a
// JSON chunk that is not an array. Input is the zero-based chunk index.
type FormatError struct {
	Input  int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("input %d: %s", e.Input, e.Reason)
}

// Formatf builds a FormatError for the given input index.
func Formatf(input int, format string, args ...any) *FormatError {
	return &FormatError{Input: input, Reason: fmt.Sprintf(format, args...)}
}

// CodecError wraps a failure surfaced by the columnar codec, e.g. a
// schema mismatch between chunks. The codec's error is kept verbatim.
type CodecError struct {
	Input int
	Err   error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("input %d: codec: %v", e.Input, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsFetch reports whether err is (or wraps) a FetchError.
func IsFetch(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsFormat reports whether err is (or wraps) a FormatError.
func IsFormat(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsCodec reports whether err is (or wraps) a CodecError.
func IsCodec(err error) bool {
	var ce *CodecError
	return errors.As(err, &ce)
}

// IsCancellation reports whether err stems from the caller's context
// being cancelled or timing out.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
