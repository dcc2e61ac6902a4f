// internal/api/errors.go
package api

import (
	"errors"
	"fmt"
)

// Error is the one normalized error shape every pipeline path converges
// on. Status 0 means a transport-level failure (DNS, refused connection,
// timeout); any other value is the HTTP status of the response. A 2xx
// response whose body fails schema validation is reported with status
// 500 so "server says OK but lied" is distinguishable from "server says
// error".
type Error struct {
	Status    int
	Message   string
	RequestID string
}

func (e *Error) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("api: %s (status %d, req %s)", e.Message, e.Status, e.RequestID)
	}
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// IsNetwork reports whether the error was a transport-level failure
// rather than an HTTP response.
func (e *Error) IsNetwork() bool {
	return e.Status == 0
}

// AsError unwraps err into a *Error if it is one.
func AsError(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// ToError normalizes an arbitrary error into the pipeline error shape.
// Errors that already are *Error pass through unchanged.
func ToError(err error) *Error {
	if ae, ok := AsError(err); ok {
		return ae
	}
	if err == nil {
		return &Error{Message: "request failed"}
	}
	return &Error{Message: err.Error()}
}

// RequestIDOf extracts the correlation id from a pipeline error, if any.
func RequestIDOf(err error) string {
	if ae, ok := AsError(err); ok {
		return ae.RequestID
	}
	return ""
}
