package main

import (
	"strings"
	"testing"
	"time"
)

func TestParseCronSchedule(t *testing.T) {
	sched, err := parseCronSchedule("30 18 * * 1-5")
	if err != nil {
		t.Fatalf("parseCronSchedule: %v", err)
	}

	// From a Tuesday morning the next firing is the same day at 18:30.
	from := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	next := sched.Next(from)
	want := time.Date(2025, time.June, 10, 18, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}

	// From Friday evening it skips the weekend.
	from = time.Date(2025, time.June, 13, 19, 0, 0, 0, time.UTC)
	next = sched.Next(from)
	want = time.Date(2025, time.June, 16, 18, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next after friday = %v, want %v", next, want)
	}

	if _, err := parseCronSchedule("not a schedule"); err == nil {
		t.Fatal("expected an error for garbage input")
	}
	if _, err := parseCronSchedule("0 18 * * 1-5 extra"); err == nil {
		t.Fatal("expected an error for a six-field expression")
	}
}

func TestFormatVisitReminder(t *testing.T) {
	day := date(2025, time.June, 16) // Monday
	entries := []QueueRecord{
		{ID: "100", SubmitterDisplayName: "Alice"},
		{ID: "205/1"},
	}

	msg := FormatVisitReminder(day, entries, nil)
	if !strings.Contains(msg, "16.06.2025") || !strings.Contains(msg, "(Mon)") {
		t.Fatalf("message missing the visit day: %q", msg)
	}
	if !strings.Contains(msg, "1. ID 100 (Alice)") {
		t.Fatalf("message missing the named entry: %q", msg)
	}
	if !strings.Contains(msg, "2. ID 205/1\n") {
		t.Fatalf("nameless entry should have no parenthetical: %q", msg)
	}
	if !strings.Contains(msg, "2 entries.") {
		t.Fatalf("message missing the total: %q", msg)
	}
	if strings.Contains(msg, "%]") {
		t.Fatalf("plain list must carry no probabilities: %q", msg)
	}
}

func TestFormatVisitReminderWithProbabilities(t *testing.T) {
	day := date(2025, time.June, 16)
	entries := []QueueRecord{
		{ID: "100", SubmitterDisplayName: "Alice"},
		{ID: "205/1"},
	}
	probs := map[string]float64{"100": 83.5}

	msg := FormatVisitReminder(day, entries, probs)
	if !strings.Contains(msg, "1. ID 100 (Alice) [83.5%]") {
		t.Fatalf("message missing the probability annotation: %q", msg)
	}
	if !strings.Contains(msg, "2. ID 205/1\n") {
		t.Fatalf("entry without a probability should stay bare: %q", msg)
	}
}
