package messagequeue

import (
	"strings"
	"testing"

	"github.com/Strob0t/EventBoard/internal/domain/change"
)

func TestSubjectFor(t *testing.T) {
	if got := SubjectFor(change.KindDeleted); got != "events.deleted" {
		t.Errorf("expected events.deleted, got %s", got)
	}
}

func TestValidateValidChangeRecord(t *testing.T) {
	data := []byte(`{"kind":"created","event_id":"e1","at":"2026-10-19T10:00:00Z"}`)
	if err := Validate(SubjectFor(change.KindCreated), data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateUnknownSubject(t *testing.T) {
	// Unknown subjects should pass (future-proof).
	data := []byte(`{"foo":"bar"}`)
	if err := Validate("unknown.subject", data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateInvalidJSON(t *testing.T) {
	data := []byte(`{not valid json`)
	err := Validate(SubjectFor(change.KindCreated), data)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "invalid JSON") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestValidateChangeRecordSchema(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		data    string
		wantErr string
	}{
		{"wrong type", "events.created", `{"kind":1}`, "schema validation failed"},
		{"unknown kind", "events.archived", `{"kind":"archived","event_id":"e1"}`, "unknown kind"},
		{"kind mismatch", "events.created", `{"kind":"deleted","event_id":"e1"}`, "does not match subject"},
		{"missing id", "events.updated", `{"kind":"updated"}`, "event_id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.subject, []byte(tt.data))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected %q in %q", tt.wantErr, err.Error())
			}
		})
	}
}
