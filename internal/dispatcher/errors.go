package dispatcher

import (
	"errors"
	"fmt"
)

// Error kinds reported by the dispatcher. Callers match them with errors.Is.
var (
	ErrInvalidMethod = errors.New("invalid method")
	ErrUnknownObject = errors.New("unknown api object")
	ErrUnknownMethod = errors.New("unknown api method")
	ErrDenied        = errors.New("method denied by policy")
)

// callFailurePrefix starts every message of a failed resolution or invocation
const callFailurePrefix = "Failed to call api: "

// InvalidMethodError is returned for names outside of the "<object>.<action>" convention
type InvalidMethodError struct {
	Name string
}

func (e *InvalidMethodError) Error() string {
	return fmt.Sprintf("%s is invalid value.", e.Name)
}

// Is makes errors.Is(err, ErrInvalidMethod) true
func (e *InvalidMethodError) Is(target error) bool {
	return target == ErrInvalidMethod
}

// CallError wraps any failure that happened after validation
type CallError struct {
	Method string
	Err    error
}

func (e *CallError) Error() string {
	return callFailurePrefix + e.Err.Error()
}

func (e *CallError) Unwrap() error {
	return e.Err
}
