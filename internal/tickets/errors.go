// internal/tickets/errors.go
package tickets

import (
	"errors"
	"fmt"

	"github.com/user/tickctl/internal/schema"
)

// DomainErrorCode categorizes client-side precondition violations.
type DomainErrorCode string

const (
	// ErrCodeUnchangedStatus: the target status equals the current one.
	ErrCodeUnchangedStatus DomainErrorCode = "UNCHANGED_STATUS"

	// ErrCodeUnknownStatus: the target status is outside the enumerated domain.
	ErrCodeUnknownStatus DomainErrorCode = "UNKNOWN_STATUS"
)

// DomainError is a precondition violation detected before any network
// call. It never wraps a transport or HTTP failure.
type DomainError struct {
	Code     DomainErrorCode
	Message  string
	TicketID int64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s (ticket=%d)", e.Code, e.Message, e.TicketID)
}

// IsDomainError returns true if err is a client-side precondition
// violation. Uses errors.As to handle wrapped errors.
func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

func newUnchangedStatusError(id int64, status schema.Status) *DomainError {
	return &DomainError{
		Code:     ErrCodeUnchangedStatus,
		Message:  fmt.Sprintf("ticket already has status %q", status),
		TicketID: id,
	}
}

func newUnknownStatusError(id int64, raw string) *DomainError {
	return &DomainError{
		Code:     ErrCodeUnknownStatus,
		Message:  fmt.Sprintf("%q is not a valid status", raw),
		TicketID: id,
	}
}
