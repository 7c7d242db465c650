package queue

import (
	"encoding/json"
	"testing"
)

func TestPriority_Promote(t *testing.T) {
	tests := []struct {
		in   Priority
		want Priority
	}{
		{PriorityBackground, PriorityLow},
		{PriorityLow, PriorityNormal},
		{PriorityNormal, PriorityHigh},
		{PriorityHigh, PriorityCritical},
		{PriorityCritical, PriorityCritical}, // capped
	}

	for _, tt := range tests {
		if got := tt.in.Promote(); got != tt.want {
			t.Errorf("Promote(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestPriority_WireEncoding(t *testing.T) {
	data, err := json.Marshal(PriorityHigh)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `"high"` {
		t.Errorf("encoded priority = %s, want %q", data, `"high"`)
	}

	var p Priority
	if err := json.Unmarshal([]byte(`"background"`), &p); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if p != PriorityBackground {
		t.Errorf("decoded priority = %s, want %s", p, PriorityBackground)
	}

	if err := json.Unmarshal([]byte(`"urgent-ish"`), &p); err == nil {
		t.Error("expected error decoding unknown priority name")
	}
	if _, err := json.Marshal(Priority(42)); err == nil {
		t.Error("expected error encoding out-of-range priority")
	}
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("critical")
	if err != nil {
		t.Fatalf("ParsePriority failed: %v", err)
	}
	if p != PriorityCritical {
		t.Errorf("ParsePriority(critical) = %s", p)
	}
	if _, err := ParsePriority("asap"); err == nil {
		t.Error("expected error for unknown priority name")
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusFailed, StatusCanceled}
	live := []Status{StatusQueued, StatusInProgress}

	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range live {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	if Status("paused").IsValid() {
		t.Error("unknown status should not be valid")
	}
}
