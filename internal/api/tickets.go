// internal/api/tickets.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/user/tickctl/internal/schema"
)

// DefaultLimit is the list window size when the caller does not specify one.
const DefaultLimit = 20

// ListParams are the call-defining parameters of one list read. A zero
// Status or empty Search means "no filter" and is omitted from the
// request entirely.
type ListParams struct {
	Status schema.Status
	Search string
	Limit  int
	Offset int
}

// Normalize fills in defaults so equal parameter sets always produce the
// same request (and the same cache key).
func (p ListParams) Normalize() ListParams {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func (p ListParams) query() url.Values {
	p = p.Normalize()
	q := url.Values{}
	q.Set("status", string(p.Status))
	q.Set("q", p.Search)
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("offset", strconv.Itoa(p.Offset))
	return q
}

// invalidShape is the error for a 2xx response whose body failed schema
// validation: reported as a server-fault-class error.
func invalidShape(requestID string) *Error {
	return &Error{
		Status:    http.StatusInternalServerError,
		Message:   "response did not match expected shape",
		RequestID: requestID,
	}
}

// ListTickets fetches one window of tickets. The second return value is
// the correlation id, populated on success and, where the server
// produced one, on failure.
func (c *Client) ListTickets(ctx context.Context, p ListParams) ([]schema.Ticket, string, error) {
	res, err := c.get(ctx, "/tickets", p.query())
	if err != nil {
		return nil, RequestIDOf(err), err
	}
	tickets, err := schema.ValidateTicketList(res.body)
	if err != nil {
		return nil, res.requestID, invalidShape(res.requestID)
	}
	return tickets, res.requestID, nil
}

// GetTicket fetches a single ticket by id.
func (c *Client) GetTicket(ctx context.Context, id int64) (schema.Ticket, string, error) {
	res, err := c.get(ctx, fmt.Sprintf("/tickets/%d", id), nil)
	if err != nil {
		return schema.Ticket{}, RequestIDOf(err), err
	}
	t, err := schema.ValidateTicket(res.body)
	if err != nil {
		return schema.Ticket{}, res.requestID, invalidShape(res.requestID)
	}
	return t, res.requestID, nil
}

// PatchStatus submits the status mutation and returns the updated ticket
// as confirmed by the server. Mutations are not retried.
func (c *Client) PatchStatus(ctx context.Context, id int64, patch schema.StatusPatch) (schema.Ticket, string, error) {
	key, err := c.credential()
	if err != nil {
		return schema.Ticket{}, "", err
	}
	res, err := c.do(ctx, key, http.MethodPatch, fmt.Sprintf("/tickets/%d/status", id), nil, patch)
	if err != nil {
		return schema.Ticket{}, RequestIDOf(err), err
	}
	t, err := schema.ValidateTicket(res.body)
	if err != nil {
		return schema.Ticket{}, res.requestID, invalidShape(res.requestID)
	}
	return t, res.requestID, nil
}
