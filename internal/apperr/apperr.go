// Package apperr defines the error taxonomy shared by services and handlers.
// Lower-level store and I/O failures are wrapped at the operation boundary
// and translated to HTTP status codes in the handler layer.
package apperr

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a file record does not exist, or when its
// blob is missing on disk (the two cases are indistinguishable to clients).
var ErrNotFound = errors.New("file not found")

// ValidationError indicates bad or missing user input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validation creates a ValidationError with the given message.
func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Kinds of configured bounds a LimitError can report.
const (
	LimitSize  = "size"
	LimitCount = "count"
)

// LimitError indicates a configured bound (file size, batch count) was
// exceeded. The limit is carried so handlers can echo it back to the client.
type LimitError struct {
	Msg   string
	Kind  string
	Limit int64
}

func (e *LimitError) Error() string {
	return e.Msg
}

// StoreError wraps a database failure. Detail is logged server-side only.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: %v", e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IOError wraps a disk or stream failure.
type IOError struct {
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error: %v", e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AsLimit returns the LimitError inside err, if any.
func AsLimit(err error) (*LimitError, bool) {
	var le *LimitError
	ok := errors.As(err, &le)
	return le, ok
}
