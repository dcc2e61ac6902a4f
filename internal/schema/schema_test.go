package schema

import (
	"encoding/json"
	"testing"
)

// ticketJSON builds a valid ticket object and applies overrides. A nil
// override removes the field.
func ticketJSON(t *testing.T, overrides map[string]any) []byte {
	t.Helper()
	obj := map[string]any{
		"id":          7,
		"title":       "Printer on fire",
		"description": "Smoke from tray 2.",
		"status":      "open",
		"created_at":  "2024-03-01T09:30:00Z",
		"updated_at":  "2024-03-01T10:00:00Z",
	}
	for k, v := range overrides {
		if v == nil {
			delete(obj, k)
		} else {
			obj[k] = v
		}
	}
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshal ticket fixture: %v", err)
	}
	return data
}

func TestValidateTicket(t *testing.T) {
	ticket, err := ValidateTicket(ticketJSON(t, nil))
	if err != nil {
		t.Fatalf("ValidateTicket failed: %v", err)
	}
	if ticket.ID != 7 {
		t.Errorf("expected id 7, got %d", ticket.ID)
	}
	if ticket.Title != "Printer on fire" {
		t.Errorf("unexpected title %q", ticket.Title)
	}
	if ticket.Status != StatusOpen {
		t.Errorf("expected status open, got %q", ticket.Status)
	}
	if ticket.UpdatedAt != "2024-03-01T10:00:00Z" {
		t.Errorf("unexpected updated_at %q", ticket.UpdatedAt)
	}
	if ticket.UpdatedTime().IsZero() {
		t.Error("expected parseable updated_at")
	}
}

func TestValidateTicketEmptyDescription(t *testing.T) {
	ticket, err := ValidateTicket(ticketJSON(t, map[string]any{"description": ""}))
	if err != nil {
		t.Fatalf("empty description should validate: %v", err)
	}
	if ticket.Description != "" {
		t.Errorf("expected empty description, got %q", ticket.Description)
	}
}

func TestValidateTicketRejects(t *testing.T) {
	cases := []struct {
		name      string
		overrides map[string]any
		field     string
	}{
		{"unknown status", map[string]any{"status": "closed"}, "status"},
		{"empty status", map[string]any{"status": ""}, "status"},
		{"fractional id", map[string]any{"id": 7.5}, "id"},
		{"string id", map[string]any{"id": "7"}, "id"},
		{"missing id", map[string]any{"id": nil}, "id"},
		{"missing title", map[string]any{"title": nil}, "title"},
		{"numeric title", map[string]any{"title": 3}, "title"},
		{"missing description", map[string]any{"description": nil}, "description"},
		{"bad created_at", map[string]any{"created_at": "yesterday"}, "created_at"},
		{"bad updated_at", map[string]any{"updated_at": "2024-03-01"}, "updated_at"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateTicket(ticketJSON(t, tc.overrides))
			if err == nil {
				t.Fatal("expected validation error")
			}
			se, ok := AsError(err)
			if !ok {
				t.Fatalf("expected *Error, got %T: %v", err, err)
			}
			if se.Field != tc.field {
				t.Errorf("expected field %q, got %q (%v)", tc.field, se.Field, err)
			}
		})
	}
}

func TestValidateTicketNotObject(t *testing.T) {
	for _, raw := range []string{`[]`, `"ticket"`, `42`, `{`} {
		if _, err := ValidateTicket([]byte(raw)); err == nil {
			t.Errorf("expected error for %s", raw)
		}
	}
}

func TestValidateTicketList(t *testing.T) {
	raw := []byte(`[` + string(ticketJSON(t, nil)) + `,` +
		string(ticketJSON(t, map[string]any{"id": 8, "status": "resolved"})) + `]`)
	list, err := ValidateTicketList(raw)
	if err != nil {
		t.Fatalf("ValidateTicketList failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(list))
	}
	if list[1].ID != 8 || list[1].Status != StatusResolved {
		t.Errorf("unexpected second ticket: %+v", list[1])
	}
}

func TestValidateTicketListElementFailure(t *testing.T) {
	raw := []byte(`[` + string(ticketJSON(t, nil)) + `,` +
		string(ticketJSON(t, map[string]any{"status": "archived"})) + `]`)
	_, err := ValidateTicketList(raw)
	if err == nil {
		t.Fatal("one bad element must fail the whole list")
	}
	se, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if se.Field != "[1].status" {
		t.Errorf("expected failing index in field, got %q", se.Field)
	}
}

func TestValidateTicketListNotArray(t *testing.T) {
	if _, err := ValidateTicketList([]byte(`{"tickets": []}`)); err == nil {
		t.Fatal("expected error for non-array")
	}
}

func TestValidateTicketListEmpty(t *testing.T) {
	list, err := ValidateTicketList([]byte(`[]`))
	if err != nil {
		t.Fatalf("empty list should validate: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list, got %d", len(list))
	}
}

func TestValidateStatusPatch(t *testing.T) {
	patch, err := ValidateStatusPatch([]byte(`{"status": "in_progress"}`))
	if err != nil {
		t.Fatalf("ValidateStatusPatch failed: %v", err)
	}
	if patch.Status != StatusInProgress {
		t.Errorf("expected in_progress, got %q", patch.Status)
	}

	if _, err := ValidateStatusPatch([]byte(`{"status": "done"}`)); err == nil {
		t.Error("expected error for unknown status")
	}
	if _, err := ValidateStatusPatch([]byte(`{}`)); err == nil {
		t.Error("expected error for missing status")
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses() {
		got, err := ParseStatus(string(s))
		if err != nil {
			t.Errorf("ParseStatus(%q) failed: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseStatus(%q) = %q", s, got)
		}
	}
	if _, err := ParseStatus("OPEN"); err == nil {
		t.Error("status matching must be exact")
	}
}
