// Package errors provides structured error types for manifestkit.
//
// Every failure the manifest layer classifies carries a [Code] so callers can
// branch on the condition without matching message text:
//
//   - NO_MANIFEST_FOUND: no candidate manifest file exists in a directory
//   - *_PARSE: a manifest file exists but cannot be decoded
//   - NOT_A_DIRECTORY: the project path names a file
//   - UNSUPPORTED_MANIFEST_NAME: an exact path has an unknown basename
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNoManifestFound, "nothing in %q", dir)
//	if errors.Is(err, errors.ErrCodeNoManifestFound) {
//	    // fall back to an empty manifest
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeYAMLParse, origErr, "%s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Lookup errors
	ErrCodeNoManifestFound         Code = "NO_MANIFEST_FOUND"
	ErrCodeNotADirectory           Code = "NOT_A_DIRECTORY"
	ErrCodeUnsupportedManifestName Code = "UNSUPPORTED_MANIFEST_NAME"

	// Decoding errors
	ErrCodeJSONParse       Code = "JSON_PARSE"
	ErrCodeYAMLParse       Code = "YAML_PARSE"
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"

	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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
// For *Error types, returns the message (and cause) without the code prefix.
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
