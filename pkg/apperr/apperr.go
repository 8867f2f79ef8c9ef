package apperr

import (
	"errors"
	"fmt"
)

// Error codes surfaced to API callers.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeExistingSlug       = "EXISTING_SLUG"
	CodeInvalidUpdate      = "INVALID_UPDATE"
	CodeNotFound           = "NOT_FOUND"
	CodeApplicationError   = "APPLICATION_ERROR"

	// Validation detail codes.
	CodeInvalidStructure   = "INVALID_STRUCTURE"
	CodeNoSlug             = "NO_SLUG"
	CodeSlugLengthExceeded = "SLUG_LENGTH_EXCEEDED"
	CodeEntryCount         = "ENTRY_COUNT"
	CodeDuplicateCodeEntry = "DUPLICATE_CODE_ENTRY"
	CodeIncompleteError    = "INCOMPLETE_ERROR_STRUCTURE"
)

// Detail is a single problem attached to an Error.
type Detail struct {
	Reason string `json:"reason"`
	Code   string `json:"code"`
}

// Error is a domain error carrying a code, a user-facing message and a list
// of details. Details are always a list, even for a single problem.
type Error struct {
	Code    string
	Message string
	Details []Detail

	cause error
}

// New creates an Error without details.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithDetails returns e with the given details appended.
func (e *Error) WithDetails(details ...Detail) *Error {
	e.Details = append(e.Details, details...)

	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}

	return fmt.Sprintf("%s (%s)", e.Message, e.Details[0].Reason)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Wrap hides err behind a generic message. Domain errors keep their details
// and code in the detail list; anything else is reduced to its message.
func Wrap(code, message string, err error) *Error {
	wrapped := &Error{Code: code, Message: message, cause: err}

	var domainErr *Error
	if errors.As(err, &domainErr) {
		if len(domainErr.Details) > 0 {
			wrapped.Details = append(wrapped.Details, domainErr.Details...)
		} else {
			wrapped.Details = append(wrapped.Details, Detail{
				Reason: domainErr.Message,
				Code:   domainErr.Code,
			})
		}

		return wrapped
	}

	wrapped.Details = append(wrapped.Details, Detail{
		Reason: err.Error(),
		Code:   CodeApplicationError,
	})

	return wrapped
}

// IsCode reports whether err is an *Error with the given code, either at the
// top level or in one of its details.
func IsCode(err error, code string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	if e.Code == code {
		return true
	}

	for _, d := range e.Details {
		if d.Code == code {
			return true
		}
	}

	return false
}
