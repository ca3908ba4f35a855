// Package errors provides the domain errors of the CineLog API. Every
// error carries a machine-readable Code that maps onto an HTTP status,
// so services never import net/http and handlers never parse messages.
//
// Services return typed errors:
//
//	if reserved {
//	    return errors.ImdbIDInUse(imdbID)
//	}
//
// Callers branch with errors.Is against the sentinels:
//
//	if errors.Is(err, errors.ErrNotFound) {
//	    ...
//	}
//
// or pull the code out for a switch:
//
//	var de *errors.Error
//	if errors.As(err, &de) {
//	    switch de.Code {
//	    case errors.CodeImdbIDInUse:
//	        ...
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Stdlib re-exports, so callers only import this package.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code identifies an error category and decides its HTTP status.
type Code string

// The full taxonomy. The API returns these strings verbatim in error bodies.
const (
	// CodeEmpty means a query succeeded but matched nothing. It is a
	// client-visible "no content" outcome, distinct from a lookup miss.
	CodeEmpty           Code = "EMPTY"
	CodeNotFound        Code = "NOT_FOUND"
	CodeNotExists       Code = "NOT_EXISTS"
	CodeCannotParseID   Code = "CANNOT_PARSE_OBJECT_ID"
	CodeWrongImdbID     Code = "WRONG_IMDB_ID"
	CodeAlreadyExists   Code = "ALREADY_EXISTS"
	CodeImdbIDInUse     Code = "IMDB_ID_IN_USE"
	CodeFieldNotAllowed Code = "FIELD_NOT_ALLOWED"
	CodeValidation      Code = "VALIDATION"
	CodeInternal        Code = "INTERNAL"
)

// HTTPStatus maps the code onto the status the API answers with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeEmpty:
		return http.StatusNoContent
	case CodeNotFound, CodeNotExists:
		return http.StatusNotFound
	case CodeCannotParseID, CodeWrongImdbID, CodeFieldNotAllowed, CodeValidation:
		return http.StatusBadRequest
	case CodeAlreadyExists, CodeImdbIDInUse:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, a message and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error carrying the same code, which makes the
// sentinels below work with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// HTTPStatus maps the error's code onto an HTTP status.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error carrying details.
func (e *Error) WithDetails(details any) *Error {
	out := *e
	out.Details = details
	return &out
}

// WithCause returns a copy of the error wrapping err.
func (e *Error) WithCause(err error) *Error {
	out := *e
	out.cause = err
	return &out
}

// Sentinels for errors.Is checks. Error.Is matches by code, so a wrapped
// constructor error still matches its sentinel.
var (
	ErrEmpty           = &Error{Code: CodeEmpty, Message: "empty result set"}
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "entity not found"}
	ErrNotExists       = &Error{Code: CodeNotExists, Message: "entity does not exist"}
	ErrCannotParseID   = &Error{Code: CodeCannotParseID, Message: "failed to parse id"}
	ErrWrongImdbID     = &Error{Code: CodeWrongImdbID, Message: "malformed imdbId"}
	ErrAlreadyExists   = &Error{Code: CodeAlreadyExists, Message: "entity already exists"}
	ErrImdbIDInUse     = &Error{Code: CodeImdbIDInUse, Message: "imdbId already in use"}
	ErrFieldNotAllowed = &Error{Code: CodeFieldNotAllowed, Message: "field not allowed"}
	ErrValidation      = &Error{Code: CodeValidation, Message: "validation error"}
	ErrInternal        = &Error{Code: CodeInternal, Message: "internal server error"}
)

// Empty creates an empty-result error.
func Empty() *Error {
	return &Error{Code: CodeEmpty, Message: "empty result set"}
}

// NotFound reports a failed lookup.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf is NotFound with a Sprintf message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// NotExists creates a missing-mutation-target error.
func NotExists(msg string) *Error {
	return &Error{Code: CodeNotExists, Message: msg}
}

// NotExistsf creates a missing-mutation-target error with formatted message.
func NotExistsf(format string, args ...any) *Error {
	return &Error{Code: CodeNotExists, Message: fmt.Sprintf(format, args...)}
}

// CannotParseID creates a malformed-identity error for the given token.
func CannotParseID(id string) *Error {
	return &Error{Code: CodeCannotParseID, Message: fmt.Sprintf("failed to parse id: '%s'", id)}
}

// WrongImdbID creates a malformed external identifier error.
func WrongImdbID(imdbID string) *Error {
	return &Error{Code: CodeWrongImdbID, Message: fmt.Sprintf("malformed imdbId: '%s'", imdbID)}
}

// AlreadyExists reports a create that hit an existing document.
func AlreadyExists(msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: msg}
}

// AlreadyExistsf is AlreadyExists with a Sprintf message.
func AlreadyExistsf(format string, args ...any) *Error {
	return &Error{Code: CodeAlreadyExists, Message: fmt.Sprintf(format, args...)}
}

// ImdbIDInUse creates a rename-collision error.
func ImdbIDInUse(imdbID string) *Error {
	return &Error{Code: CodeImdbIDInUse, Message: fmt.Sprintf("imdbId '%s' already in use", imdbID)}
}

// FieldNotAllowed creates a patch allow-list rejection for the given field.
func FieldNotAllowed(field string) *Error {
	return &Error{Code: CodeFieldNotAllowed, Message: fmt.Sprintf("field '%s' not allowed", field)}
}

// Validation reports a rejected payload.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf is Validation with a Sprintf message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails attaches a per-field message map to the rejection.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Internal covers everything the client cannot fix.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf is Internal with a Sprintf message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, keeping the
// cause reachable through Unwrap.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf is Wrap with a Sprintf message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
