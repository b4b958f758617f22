// Package errors provides structured error types for cheby.
//
// This package defines error codes and types that enable:
//   - Fail-fast reporting from the layout engine with the offending node
//   - Machine-readable codes and reasons for programmatic handling
//   - User-friendly messages that identify the description file and node path
//   - Error wrapping with context preservation
//
// # Error Codes
//
// A [Code] is the broad category of a failure (a missing attribute, an
// overlap, a misaligned address). A [Reason] narrows it down to the exact
// rule that fired, for example [ReasonFieldOverlap] or [ReasonBadWidth].
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMissingAttribute, "missing width for register %s", path).
//	    WithReason(errors.ReasonMissingWidth).
//	    At(file, path)
//	if errors.Is(err, errors.ErrCodeMissingAttribute) {
//	    // Handle the missing attribute
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeParse, origErr, "cannot load submap %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error category.
type Code string

// Error codes for different error categories.
const (
	// Description errors
	ErrCodeMissingAttribute Code = "MISSING_ATTRIBUTE"
	ErrCodeInvalidValue     Code = "INVALID_VALUE"
	ErrCodeInvalidRange     Code = "INVALID_RANGE"
	ErrCodeOverflow         Code = "OVERFLOW"
	ErrCodeOverlap          Code = "OVERLAP"
	ErrCodeMisaligned       Code = "MISALIGNED"
	ErrCodeConflict         Code = "CONFLICT"
	ErrCodeUnknownBus       Code = "UNKNOWN_BUS"
	ErrCodeSizeTooSmall     Code = "SIZE_TOO_SMALL"
	ErrCodeEmptyDescription Code = "EMPTY_DESCRIPTION"

	// Input errors
	ErrCodeParse        Code = "PARSE_ERROR"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeInvalidInput Code = "INVALID_INPUT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Reason identifies the precise rule that rejected a description.
type Reason string

// Reasons reported by the layout engine.
const (
	ReasonMissingName      Reason = "MissingName"
	ReasonMissingRange     Reason = "MissingRange"
	ReasonMissingWidth     Reason = "MissingWidth"
	ReasonMissingAccess    Reason = "MissingAccess"
	ReasonMissingSize      Reason = "MissingSize"
	ReasonMissingRepeat    Reason = "MissingRepeat"
	ReasonMissingInterface Reason = "MissingInterface"

	ReasonBadWidth      Reason = "BadWidth"
	ReasonBadAccess     Reason = "BadAccess"
	ReasonBadType       Reason = "BadType"
	ReasonBadFloatWidth Reason = "BadFloatWidth"

	ReasonSingleBitRange Reason = "SingleBitRange"
	ReasonInvertedRange  Reason = "InvertedRange"

	ReasonWidthOverflow   Reason = "WidthOverflow"
	ReasonStorageOverflow Reason = "StorageOverflow"
	ReasonPresetOverflow  Reason = "PresetOverflow"
	ReasonAddressOverflow Reason = "AddressOverflow"

	ReasonFieldOverlap   Reason = "FieldOverlap"
	ReasonAddressOverlap Reason = "AddressOverlap"

	ReasonUnalignedAddress Reason = "UnalignedAddress"

	ReasonIncompatibleGenerator Reason = "IncompatibleGenerator"
	ReasonIncompatibleResize    Reason = "IncompatibleResize"
	ReasonTypeAndFieldsConflict Reason = "TypeAndFieldsConflict"
	ReasonConflictingSize       Reason = "ConflictingSize"
	ReasonInterfaceOverride     Reason = "InterfaceOverride"
	ReasonDuplicateFieldName    Reason = "DuplicateFieldName"
	ReasonDuplicateChildName    Reason = "DuplicateChildName"
	ReasonSubmapCycle           Reason = "SubmapCycle"

	ReasonArityError Reason = "ArityError"
	ReasonBadRepeat  Reason = "BadRepeat"
	ReasonBadSize    Reason = "BadSize"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code     // Machine-readable error category
	Reason  Reason   // Rule that fired (optional)
	File    string   // Description file being processed (optional)
	Path    string   // Node path from the root, e.g. "/top/ctrl/mode" (optional)
	Message string   // Human-readable message
	Details []string // Supplementary lines, e.g. an address map (optional)
	Cause   error    // Underlying error (optional)
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

// At records the description file and node path the error refers to.
// An empty file leaves the current value untouched.
func (e *Error) At(file, path string) *Error {
	if file != "" {
		e.File = file
	}
	e.Path = path
	return e
}

// WithReason sets the fine-grained reason.
func (e *Error) WithReason(r Reason) *Error {
	e.Reason = r
	return e
}

// WithDetails appends supplementary lines.
func (e *Error) WithDetails(lines ...string) *Error {
	e.Details = append(e.Details, lines...)
	return e
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

// HasReason reports whether any *Error in the chain of err carries reason r.
func HasReason(err error, r Reason) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Reason == r {
			return true
		}
		err = e.Cause
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

// Origin returns the innermost *Error of the chain that names a file, so
// that a failure inside a sub-map is reported against the sub-map file.
func Origin(err error) *Error {
	var found *Error
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			break
		}
		if e.File != "" {
			found = e
		}
		err = e.Cause
	}
	return found
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}
