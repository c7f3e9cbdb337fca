// Package errs defines the error taxonomy shared by the service layer and
// the HTTP boundary. Every error carries a stable message and an HTTP
// status; anything else maps to 500 without leaking internal detail.
package errs

import (
	"errors"
	"net/http"
)

type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// NotFound signals an absent chat or user. Never retried.
func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Message: msg}
}

// Forbidden signals failed authorization. State is guaranteed untouched.
func Forbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Message: msg}
}

// Invariant signals a domain rule breach (size bounds, empty message)
// detected before any mutation.
func Invariant(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

// Storage signals an attachment upload or delete failure.
func Storage(msg string) *Error {
	return &Error{Status: http.StatusBadGateway, Message: msg}
}

// StatusOf maps an error to its HTTP status, defaulting to 500.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the stable message for taxonomy errors and a generic
// one otherwise, so internal detail never reaches production responses.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
