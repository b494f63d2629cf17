package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"text/tabwriter"
	"time"

	"github.com/Strob0t/EventBoard/internal/domain/change"
	"github.com/Strob0t/EventBoard/internal/port/messagequeue"
)

func TestParseSteps(t *testing.T) {
	tests := []struct {
		name    string
		cmd     string
		rest    []string
		want    int
		wantErr bool
	}{
		{"up", "up", nil, 0, false},
		{"version", "version", nil, 0, false},
		{"up with args", "up", []string{"2"}, 0, true},
		{"down default", "down", nil, 1, false},
		{"down n", "down", []string{"3"}, 3, false},
		{"down zero", "down", []string{"0"}, 0, true},
		{"down not a number", "down", []string{"x"}, 0, true},
		{"down too many", "down", []string{"1", "2"}, 0, true},
		{"unknown", "sideways", nil, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSteps(tt.cmd, tt.rest)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("steps = %d, want %d", got, tt.want)
			}
		})
	}
}

func testRecord() messagequeue.ChangeRecordPayload {
	return messagequeue.ChangeRecordPayload{
		Kind:    change.KindCreated,
		EventID: "ev-1",
		At:      time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPrintRecordTable(t *testing.T) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if err := printRecord(w, testRecord(), false); err != nil {
		t.Fatal(err)
	}

	line := buf.String()
	for _, want := range []string{"2026-05-01T12:00:00Z", "created", "ev-1", "-"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestPrintRecordJSON(t *testing.T) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	rec := testRecord()
	rec.RequestID = "req-9"
	if err := printRecord(w, rec, true); err != nil {
		t.Fatal(err)
	}

	var got messagequeue.ChangeRecordPayload
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if got.Kind != change.KindCreated || got.EventID != "ev-1" || got.RequestID != "req-9" {
		t.Errorf("got %+v", got)
	}
}
