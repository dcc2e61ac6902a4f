// internal/api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Request and response header names of the ticket-desk HTTP contract.
const (
	headerAPIKey          = "X-API-Key"
	headerRequestID       = "X-Request-ID"
	headerClientRequestID = "X-Client-Request-ID"
)

// CredentialSource supplies the current API key. The client never caches
// the key; every call reads whatever credential is current.
type CredentialSource interface {
	Get() (string, bool)
}

// StaticCredential is a CredentialSource holding a fixed key. Useful in
// tests and for one-shot probes.
type StaticCredential string

func (s StaticCredential) Get() (string, bool) {
	return string(s), s != ""
}

// Client is the typed request pipeline: it builds authenticated requests
// against a base address, validates every response body, and normalizes
// transport, HTTP and validation failures into *Error.
type Client struct {
	baseURL string
	creds   CredentialSource
	http    *http.Client
	retry   *RetryPolicy
}

// Option configures optional behavior on a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetryPolicy replaces the retry policy for idempotent reads.
func WithRetryPolicy(p *RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a Client for the given base address. The credential source
// gates all authenticated calls.
func New(baseURL string, creds CredentialSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		http:    &http.Client{Timeout: 30 * time.Second},
		retry:   DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// buildURL joins the base address with path and encodes query
// parameters, omitting any parameter whose value is the empty string.
// "not specified" and "specified as empty" collapse to the same request.
func (c *Client) buildURL(path string, query url.Values) string {
	u := c.baseURL + path
	if query == nil {
		return u
	}
	q := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			if v == "" {
				continue
			}
			q.Set(k, v)
		}
	}
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// result is the raw outcome of one successful HTTP exchange.
type result struct {
	body      json.RawMessage
	requestID string
}

// do performs one HTTP exchange. key may be empty for unauthenticated
// calls. Every failure path returns *Error; the correlation id from the
// response header is attached whenever a response was received.
func (c *Client) do(ctx context.Context, key, method, path string, query url.Values, body any) (*result, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Message: fmt.Sprintf("encode request body: %v", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path, query), reader)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("create request: %v", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set(headerAPIKey, key)
	}
	req.Header.Set(headerClientRequestID, uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Message: "network unreachable"}
	}
	defer resp.Body.Close()

	requestID := resp.Header.Get(headerRequestID)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Message: "network unreachable", RequestID: requestID}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Status:    resp.StatusCode,
			Message:   errorMessage(resp.StatusCode, data),
			RequestID: requestID,
		}
	}
	return &result{body: data, requestID: requestID}, nil
}

// errorMessage extracts a human-readable message from a JSON error body.
// The conventional fields are `detail` and `error`, with `error` taking
// precedence; a body with neither falls back to the HTTP status line.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
		Err    string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Err != "" {
			return payload.Err
		}
		if payload.Detail != "" {
			return payload.Detail
		}
	}
	return fmt.Sprintf("%d %s", status, http.StatusText(status))
}

// credential reads the current session key, failing closed when absent.
func (c *Client) credential() (string, error) {
	key, ok := c.creds.Get()
	if !ok {
		return "", &Error{Status: http.StatusUnauthorized, Message: "not logged in"}
	}
	return key, nil
}

// get performs an authenticated idempotent read through the retry policy.
func (c *Client) get(ctx context.Context, path string, query url.Values) (*result, error) {
	key, err := c.credential()
	if err != nil {
		return nil, err
	}
	var res *result
	err = c.retry.Execute(ctx, func() error {
		var doErr error
		res, doErr = c.do(ctx, key, http.MethodGet, path, query, nil)
		return doErr
	})
	return res, err
}

// Health probes the unauthenticated liveness endpoint. Any 2xx means the
// service is reachable.
func (c *Client) Health(ctx context.Context) bool {
	_, err := c.do(ctx, "", http.MethodGet, "/health", nil, nil)
	return err == nil
}

// Probe exercises a minimally scoped authenticated read with a candidate
// key. Only a clean 2xx counts as acceptance; any other response is
// returned as the pipeline error so the caller can distinguish rejection
// from unreachability.
func (c *Client) Probe(ctx context.Context, key string) error {
	q := url.Values{}
	q.Set("limit", "1")
	q.Set("offset", "0")
	_, err := c.do(ctx, key, http.MethodGet, "/tickets", q, nil)
	return err
}
