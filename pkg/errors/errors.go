// Package errors provides structured error types for stampgrid.
//
// Every failure that leaves a library package carries a machine-readable
// [Code] so callers can tell a bad configuration apart from a rendering or
// extraction problem without string matching.
//
// # Error Codes
//
//   - CONFIGURATION_ERROR: the catalog, PSF description or options cannot be
//     simulated (odd stamp size, ragged grid, missing profile fields,
//     ambiguous PSF columns). Raised before any pixel is drawn.
//   - EXTRACTION_ERROR: a requested sub-raster lies outside its source raster.
//   - RENDER_ERROR: the renderer cannot produce pixels for a parameter set.
//   - INVALID_*: input validation failures (paths, formats, flags).
//   - NOT_FOUND / FILE_NOT_FOUND: missing resources.
//
// None of these are recovered locally; a failing row aborts the whole
// composition call.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConfiguration, "stampsize %d must be even", ss)
//	if errors.Is(err, errors.ErrCodeConfiguration) {
//	    // Handle configuration error
//	}
//
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "failed to read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Simulation errors
	ErrCodeConfiguration Code = "CONFIGURATION_ERROR"
	ErrCodeExtraction    Code = "EXTRACTION_ERROR"
	ErrCodeRender        Code = "RENDER_ERROR"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Configuration is shorthand for New(ErrCodeConfiguration, ...).
func Configuration(format string, args ...any) *Error {
	return New(ErrCodeConfiguration, format, args...)
}

// Extraction is shorthand for New(ErrCodeExtraction, ...).
func Extraction(format string, args ...any) *Error {
	return New(ErrCodeExtraction, format, args...)
}

// Render is shorthand for New(ErrCodeRender, ...).
func Render(format string, args ...any) *Error {
	return New(ErrCodeRender, format, args...)
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// Fatal reports whether err belongs to the simulation error taxonomy that
// aborts a composition call.
func Fatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeConfiguration, ErrCodeExtraction, ErrCodeRender:
		return true
	}
	return false
}
