package event

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Strob0t/EventBoard/internal/domain"
)

func validRequest() Request {
	return Request{
		Title:    "Team offsite",
		DateTime: time.Date(2026, 11, 3, 18, 30, 0, 0, time.UTC),
		Guests:   []string{"ana@example.com", "bo@example.com"},
		Location: "Room 4",
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Request)
		wantErr string
	}{
		{name: "valid", modify: func(*Request) {}},
		{name: "no guests", modify: func(r *Request) { r.Guests = nil }},
		{name: "empty location", modify: func(r *Request) { r.Location = "" }},
		{name: "empty title", modify: func(r *Request) { r.Title = "" }, wantErr: "title is required"},
		{name: "blank title", modify: func(r *Request) { r.Title = "   " }, wantErr: "title is required"},
		{name: "long title", modify: func(r *Request) { r.Title = strings.Repeat("x", 256) }, wantErr: "title exceeds"},
		{name: "control chars", modify: func(r *Request) { r.Title = "bad\x00title" }, wantErr: "control characters"},
		{name: "missing date", modify: func(r *Request) { r.DateTime = time.Time{} }, wantErr: "date_time is required"},
		{name: "empty guest", modify: func(r *Request) { r.Guests = []string{"a", " "} }, wantErr: "guests[1] is empty"},
		{name: "long location", modify: func(r *Request) { r.Location = strings.Repeat("x", 501) }, wantErr: "location exceeds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.modify(&req)
			err := ValidateRequest(&req)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected %q in %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestApplyCopiesGuests(t *testing.T) {
	req := validRequest()
	var e Event
	e.Apply(&req)

	req.Guests[0] = "mutated"
	if e.Guests[0] != "ana@example.com" {
		t.Errorf("Apply must not alias the request slice, got %q", e.Guests[0])
	}
	if e.Title != req.Title || !e.DateTime.Equal(req.DateTime) || e.Location != req.Location {
		t.Errorf("fields not applied: %+v", e)
	}
}
