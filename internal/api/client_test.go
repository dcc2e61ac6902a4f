package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/user/tickctl/internal/schema"
)

func ticketBody(id int64, status string) map[string]any {
	return map[string]any{
		"id":          id,
		"title":       "Test ticket",
		"description": "",
		"status":      status,
		"created_at":  "2024-03-01T09:30:00Z",
		"updated_at":  "2024-03-01T10:00:00Z",
	}
}

// noRetry keeps transport-failure tests fast.
func noRetry() Option {
	return WithRetryPolicy(&RetryPolicy{MaxAttempts: 1})
}

func TestListTickets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Error("missing or invalid auth header")
		}
		if r.Header.Get("X-Client-Request-ID") == "" {
			t.Error("missing client request id header")
		}
		q := r.URL.Query()
		if q.Get("limit") != "10" || q.Get("offset") != "20" {
			t.Errorf("unexpected pagination params: %s", r.URL.RawQuery)
		}
		if q.Has("status") || q.Has("q") {
			t.Errorf("empty filters must be omitted, got %s", r.URL.RawQuery)
		}
		w.Header().Set("X-Request-ID", "req-123")
		json.NewEncoder(w).Encode([]any{ticketBody(1, "open"), ticketBody(2, "resolved")})
	}))
	defer server.Close()

	client := New(server.URL, StaticCredential("test-key"))
	rows, requestID, err := client.ListTickets(context.Background(), ListParams{Limit: 10, Offset: 20})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(rows))
	}
	if rows[0].ID != 1 || rows[1].Status != schema.StatusResolved {
		t.Errorf("unexpected rows: %+v", rows)
	}
	if requestID != "req-123" {
		t.Errorf("expected correlation id req-123, got %q", requestID)
	}
}

func TestListTicketsFilters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("status") != "open" {
			t.Errorf("expected status=open, got %q", q.Get("status"))
		}
		if q.Get("q") != "printer" {
			t.Errorf("expected q=printer, got %q", q.Get("q"))
		}
		json.NewEncoder(w).Encode([]any{})
	}))
	defer server.Close()

	client := New(server.URL, StaticCredential("k"))
	rows, _, err := client.ListTickets(context.Background(), ListParams{
		Status: schema.StatusOpen,
		Search: "printer",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("expected empty result, got %d rows", len(rows))
	}
}

func TestGetTicket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tickets/7" {
			t.Errorf("expected path /tickets/7, got %q", r.URL.Path)
		}
		w.Header().Set("X-Request-ID", "req-7")
		json.NewEncoder(w).Encode(ticketBody(7, "in_progress"))
	}))
	defer server.Close()

	client := New(server.URL, StaticCredential("k"))
	ticket, requestID, err := client.GetTicket(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if ticket.ID != 7 || ticket.Status != schema.StatusInProgress {
		t.Errorf("unexpected ticket: %+v", ticket)
	}
	if requestID != "req-7" {
		t.Errorf("expected req-7, got %q", requestID)
	}
}

func TestPatchStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		if r.URL.Path != "/tickets/7/status" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected JSON content type, got %q", r.Header.Get("Content-Type"))
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["status"] != "resolved" {
			t.Errorf("expected status=resolved in body, got %v", body)
		}
		json.NewEncoder(w).Encode(ticketBody(7, "resolved"))
	}))
	defer server.Close()

	client := New(server.URL, StaticCredential("k"))
	ticket, _, err := client.PatchStatus(context.Background(), 7, schema.StatusPatch{Status: schema.StatusResolved})
	if err != nil {
		t.Fatal(err)
	}
	if ticket.Status != schema.StatusResolved {
		t.Errorf("expected resolved, got %q", ticket.Status)
	}
}

func TestErrorBodyExtraction(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"detail field", 404, `{"detail": "ticket not found"}`, "ticket not found"},
		{"error field wins", 422, `{"detail": "d", "error": "bad status value"}`, "bad status value"},
		{"no body", 503, ``, "503 Service Unavailable"},
		{"non-json body", 500, `boom`, "500 Internal Server Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Request-ID", "req-err")
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := New(server.URL, StaticCredential("k"), noRetry())
			_, requestID, err := client.GetTicket(context.Background(), 1)
			if err == nil {
				t.Fatal("expected error")
			}
			ae, ok := AsError(err)
			if !ok {
				t.Fatalf("expected *Error, got %T", err)
			}
			if ae.Status != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, ae.Status)
			}
			if ae.Message != tc.message {
				t.Errorf("expected message %q, got %q", tc.message, ae.Message)
			}
			if ae.RequestID != "req-err" {
				t.Errorf("correlation id must survive failures, got %q", ae.RequestID)
			}
			if requestID != "req-err" {
				t.Errorf("correlation id must be surfaced, got %q", requestID)
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	client := New(server.URL, StaticCredential("k"), noRetry())
	_, _, err := client.GetTicket(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error")
	}
	ae, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if !ae.IsNetwork() {
		t.Errorf("expected network error, got status %d", ae.Status)
	}
	if ae.Message != "network unreachable" {
		t.Errorf("unexpected message %q", ae.Message)
	}
}

func TestValidationFailureIsServerFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", "req-bad")
		json.NewEncoder(w).Encode(map[string]any{"unexpected": true})
	}))
	defer server.Close()

	client := New(server.URL, StaticCredential("k"))
	_, requestID, err := client.GetTicket(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error for malformed 2xx body")
	}
	ae, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if ae.Status != http.StatusInternalServerError {
		t.Errorf("validation failure must be server-fault-class, got %d", ae.Status)
	}
	if ae.Message != "response did not match expected shape" {
		t.Errorf("unexpected message %q", ae.Message)
	}
	if requestID != "req-bad" {
		t.Errorf("correlation id must survive validation failures, got %q", requestID)
	}
}

func TestNotLoggedIn(t *testing.T) {
	// no server: the gate must trip before any network use
	client := New("http://127.0.0.1:1", StaticCredential(""))
	_, _, err := client.ListTickets(context.Background(), ListParams{})
	if err == nil {
		t.Fatal("expected error without credential")
	}
	ae, ok := AsError(err)
	if !ok || ae.Status != http.StatusUnauthorized {
		t.Errorf("expected 401-style gate error, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "" {
			t.Error("health probe must be unauthenticated")
		}
	}))
	defer up.Close()

	client := New(up.URL, StaticCredential("k"))
	if !client.Health(context.Background()) {
		t.Error("expected healthy")
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	client = New(down.URL, StaticCredential("k"))
	if client.Health(context.Background()) {
		t.Error("expected unhealthy on non-2xx")
	}
}

func TestProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "1" {
			t.Errorf("probe must be minimally scoped, got %s", r.URL.RawQuery)
		}
		if r.Header.Get("X-API-Key") != "good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "invalid API key"})
			return
		}
		json.NewEncoder(w).Encode([]any{})
	}))
	defer server.Close()

	client := New(server.URL, StaticCredential(""))
	if err := client.Probe(context.Background(), "good-key"); err != nil {
		t.Errorf("expected acceptance, got %v", err)
	}

	err := client.Probe(context.Background(), "bad-key")
	if err == nil {
		t.Fatal("expected rejection")
	}
	ae, ok := AsError(err)
	if !ok || ae.Status != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}
