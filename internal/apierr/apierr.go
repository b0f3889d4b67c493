package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the typed error handlers translate to HTTP responses. Services
// return it for conditions the caller can act on; anything else is a 500.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NotFound(resource string) *Error {
	return New(http.StatusNotFound, "not_found", fmt.Errorf("%s not found", resource))
}

func Conflict(msg string) *Error {
	return New(http.StatusConflict, "conflict", errors.New(msg))
}

func InvalidState(msg string) *Error {
	return New(http.StatusUnprocessableEntity, "invalid_state", errors.New(msg))
}

func BadRequest(msg string) *Error {
	return New(http.StatusBadRequest, "bad_request", errors.New(msg))
}

// Upstream marks a dependency failure. Generation services never let it
// escape; they absorb it into a deterministic fallback.
func Upstream(err error) *Error {
	return New(http.StatusBadGateway, "upstream_unavailable", err)
}

// From extracts the typed error from an error chain, nil when absent.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}
