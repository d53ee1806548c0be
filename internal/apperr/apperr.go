// Package apperr defines the domain error taxonomy. Errors are raised at the
// point of detection and rendered as a uniform JSON envelope at the HTTP
// boundary; nothing downgrades them along the way.
package apperr

import (
	"errors"
	"net/http"
)

// Error is a domain error with the HTTP status it renders as.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *Error) Error() string {
	return e.Message
}

// BadRequest signals malformed or missing input.
func BadRequest(message string) *Error {
	return &Error{Message: message, Status: http.StatusBadRequest}
}

// Unauthorized signals a missing, invalid, or insufficiently privileged
// credential.
func Unauthorized(message string) *Error {
	return &Error{Message: message, Status: http.StatusUnauthorized}
}

// NotFound signals a referenced user or message that does not exist.
func NotFound(message string) *Error {
	return &Error{Message: message, Status: http.StatusNotFound}
}

// Conflict signals a uniqueness violation, e.g. a duplicate username.
func Conflict(message string) *Error {
	return &Error{Message: message, Status: http.StatusConflict}
}

// From extracts the domain error from err, or nil if err is not one.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
