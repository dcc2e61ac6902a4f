// internal/schema/schema.go
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Status is the enumerated ticket status domain. Any other string is
// rejected at the validation boundary.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
)

// Statuses returns the full status domain in display order.
func Statuses() []Status {
	return []Status{StatusOpen, StatusInProgress, StatusResolved}
}

// Valid reports whether s is a member of the status domain.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// ParseStatus validates a raw string against the status domain.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", &Error{Field: "status", Reason: fmt.Sprintf("%q is not one of open, in_progress, resolved", s)}
	}
	return st, nil
}

// Ticket is one ticket as returned by the API. The id is server-assigned
// and immutable; timestamps are RFC 3339 strings, kept in their wire
// encoding so re-serialization is lossless.
type Ticket struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// UpdatedTime parses the updated_at timestamp. Returns the zero time if
// the field does not parse; validated tickets always parse.
func (t Ticket) UpdatedTime() time.Time {
	ts, err := time.Parse(time.RFC3339, t.UpdatedAt)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// StatusPatch is the write-only envelope for the status mutation.
type StatusPatch struct {
	Status Status `json:"status"`
}

// Error is a validation failure for a single field. It is a distinct
// error kind so callers can tell "the server lied about the shape" apart
// from transport and HTTP failures.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("schema: field %s: %s", e.Field, e.Reason)
}

// AsError unwraps err into a *Error if it is one.
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// decodeObject decodes raw into a generic object, keeping numbers as
// json.Number so integer checks are exact.
func decodeObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func intField(obj map[string]any, name string) (int64, error) {
	v, ok := obj[name]
	if !ok {
		return 0, &Error{Field: name, Reason: "missing"}
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, &Error{Field: name, Reason: "not a number"}
	}
	i, err := n.Int64()
	if err != nil {
		return 0, &Error{Field: name, Reason: "not an integer"}
	}
	return i, nil
}

func stringField(obj map[string]any, name string) (string, error) {
	v, ok := obj[name]
	if !ok {
		return "", &Error{Field: name, Reason: "missing"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &Error{Field: name, Reason: "not a string"}
	}
	return s, nil
}

func datetimeField(obj map[string]any, name string) (string, error) {
	s, err := stringField(obj, name)
	if err != nil {
		return "", err
	}
	if _, err := time.Parse(time.RFC3339, s); err != nil {
		return "", &Error{Field: name, Reason: "not a valid RFC 3339 date-time"}
	}
	return s, nil
}

// ValidateTicket checks a raw JSON value against the Ticket contract:
// integer id, string title/description (empty description allowed),
// enumerated status, and two RFC 3339 timestamps.
func ValidateTicket(raw json.RawMessage) (Ticket, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return Ticket{}, &Error{Field: "ticket", Reason: "not a JSON object"}
	}

	var t Ticket
	if t.ID, err = intField(obj, "id"); err != nil {
		return Ticket{}, err
	}
	if t.Title, err = stringField(obj, "title"); err != nil {
		return Ticket{}, err
	}
	if t.Description, err = stringField(obj, "description"); err != nil {
		return Ticket{}, err
	}
	status, err := stringField(obj, "status")
	if err != nil {
		return Ticket{}, err
	}
	if t.Status, err = ParseStatus(status); err != nil {
		return Ticket{}, err
	}
	if t.CreatedAt, err = datetimeField(obj, "created_at"); err != nil {
		return Ticket{}, err
	}
	if t.UpdatedAt, err = datetimeField(obj, "updated_at"); err != nil {
		return Ticket{}, err
	}
	return t, nil
}

// ValidateTicketList checks an ordered sequence of tickets. The whole
// list fails if any one element fails; the failing element's index is
// carried in the error field.
func ValidateTicketList(raw json.RawMessage) ([]Ticket, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, &Error{Field: "tickets", Reason: "not a JSON array"}
	}
	out := make([]Ticket, 0, len(elems))
	for i, el := range elems {
		t, err := ValidateTicket(el)
		if err != nil {
			if se, ok := AsError(err); ok {
				return nil, &Error{Field: fmt.Sprintf("[%d].%s", i, se.Field), Reason: se.Reason}
			}
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// ValidateStatusPatch checks the outbound mutation envelope: a status
// field holding a member of the status domain. Other fields are ignored.
func ValidateStatusPatch(raw json.RawMessage) (StatusPatch, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return StatusPatch{}, &Error{Field: "status_patch", Reason: "not a JSON object"}
	}
	s, err := stringField(obj, "status")
	if err != nil {
		return StatusPatch{}, err
	}
	st, err := ParseStatus(s)
	if err != nil {
		return StatusPatch{}, err
	}
	return StatusPatch{Status: st}, nil
}
