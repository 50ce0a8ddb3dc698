package error

import (
	"fmt"
	"net/http"
)

// AppError carries the HTTP status a REST handler answers with
type AppError struct {
	// Code is one of the net/http status constants
	Code    int
	Message string
	Err     error
}

// NewAppError wraps err with the status code and a reason for the client.
// A zero code means 500.
func NewAppError(code int, message string, err error) *AppError {
	if code == 0 {
		code = http.StatusInternalServerError
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// AppErrorf builds an AppError without a wrapped cause
func AppErrorf(code int, format string, a ...interface{}) *AppError {
	return NewAppError(code, fmt.Sprintf(format, a...), nil)
}

func (e *AppError) Error() string {
	switch {
	case e.Err == nil:
		return e.Message
	case e.Message == "":
		return e.Err.Error()
	default:
		return e.Message + ". Details: " + e.Err.Error()
	}
}

// Unwrap gives the wrapped cause
func (e *AppError) Unwrap() error {
	return e.Err
}
