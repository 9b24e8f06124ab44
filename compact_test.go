package main

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func keepIDs(plan CompactionPlan) []string {
	ids := make([]string, 0, len(plan.Keep))
	for _, r := range plan.Keep {
		ids = append(ids, r.ID+"/"+r.ModifiedAt)
	}
	return ids
}

func TestCompactDropsRejectedRows(t *testing.T) {
	records := []QueueRecord{
		qr("1", "10.06.2025", StatusRejected, "01.06.2025 10:00:00", "U1"),
		qr("2", "10.06.2025", StatusPending, "01.06.2025 10:00:00", "U2"),
		qr("3", "10.06.2025", StatusRejected, "02.06.2025 10:00:00", "U3"),
	}
	plan := CompactRecords(records, date(2025, time.June, 1))

	if plan.Removed != 2 || len(plan.Keep) != 1 || plan.Keep[0].ID != "2" {
		t.Fatalf("plan = %+v, want only id 2 kept", plan)
	}
}

func TestCompactDropsSupersededPastDates(t *testing.T) {
	// Same submitter re-booked: the old row's date is already past.
	records := []QueueRecord{
		qr("10", "02.06.2025", StatusPending, "01.06.2025 10:00:00", "U1"),
		qr("10", "20.06.2025", StatusPending, "05.06.2025 10:00:00", "U1"),
	}
	plan := CompactRecords(records, date(2025, time.June, 10))
	if plan.Removed != 1 || plan.Keep[0].TargetDate != "20.06.2025" {
		t.Fatalf("plan = %+v, want the old past-dated row dropped", plan)
	}

	// Future-dated superseded row survives while the id is still pending.
	records[0].TargetDate = "15.06.2025"
	plan = CompactRecords(records, date(2025, time.June, 10))
	if plan.Removed != 0 {
		t.Fatalf("plan = %+v, future superseded pending row should be kept", plan)
	}
}

func TestCompactApprovedCollapsesSameSubmitterHistory(t *testing.T) {
	records := []QueueRecord{
		qr("10", "25.06.2025", StatusPending, "01.06.2025 10:00:00", "U1"),
		qr("10", "25.06.2025", StatusApproved, "02.06.2025 10:00:00", "U1"),
		qr("10", "25.06.2025", StatusPending, "01.06.2025 09:00:00", "U2"),
	}
	plan := CompactRecords(records, date(2025, time.June, 10))

	// Visit date still ahead: only the same-submitter history collapses.
	if plan.Removed != 1 {
		t.Fatalf("plan keeps %v, want exactly the U1 pending row dropped", keepIDs(plan))
	}
	for _, r := range plan.Keep {
		if r.SubmitterID == "U1" && r.Status == StatusPending {
			t.Fatalf("U1 pending row survived: %v", keepIDs(plan))
		}
	}

	// Once the approved date has passed, the competing U2 row goes too.
	plan = CompactRecords(records, date(2025, time.July, 1))
	if plan.Removed != 2 || len(plan.Keep) != 1 || plan.Keep[0].Status != StatusApproved {
		t.Fatalf("plan = %v, want only the approved row after the visit", keepIDs(plan))
	}
}

func TestCompactIdempotent(t *testing.T) {
	records := []QueueRecord{
		qr("1", "02.06.2025", StatusRejected, "01.06.2025 10:00:00", "U1"),
		qr("2", "02.06.2025", StatusPending, "01.06.2025 10:00:00", "U2"),
		qr("2", "20.06.2025", StatusApproved, "03.06.2025 10:00:00", "U2"),
		qr("3", "25.06.2025", StatusApproved, "01.06.2025 10:00:00", "U3"),
	}
	today := date(2025, time.June, 10)

	first := CompactRecords(records, today)
	second := CompactRecords(first.Keep, today)
	if second.Removed != 0 {
		t.Fatalf("second pass removed %d records, want 0", second.Removed)
	}
	if len(second.Keep) != len(first.Keep) {
		t.Fatalf("second pass changed the log: %v vs %v", keepIDs(second), keepIDs(first))
	}
}

type fakeLogStore struct {
	records   []QueueRecord
	version   LogVersion
	loadErr   error
	writeErr  error
	overwrote [][]QueueRecord
}

func (f *fakeLogStore) Load() ([]QueueRecord, LogVersion, error) {
	return f.records, f.version, f.loadErr
}

func (f *fakeLogStore) Append(records ...QueueRecord) error {
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeLogStore) Overwrite(records []QueueRecord, version LogVersion) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.overwrote = append(f.overwrote, records)
	f.records = records
	return nil
}

func TestRunCompaction(t *testing.T) {
	now := func() time.Time { return date(2025, time.June, 10) }
	store := &fakeLogStore{records: []QueueRecord{
		qr("1", "02.06.2025", StatusRejected, "01.06.2025 10:00:00", "U1"),
		qr("2", "20.06.2025", StatusPending, "01.06.2025 10:00:00", "U2"),
	}}

	res, err := RunCompaction(store, now)
	if err != nil {
		t.Fatalf("RunCompaction: %v", err)
	}
	if res.Removed != 1 || res.Remaining != 1 {
		t.Fatalf("result = %+v, want 1 removed 1 remaining", res)
	}
	if len(store.overwrote) != 1 {
		t.Fatalf("store rewritten %d times, want 1", len(store.overwrote))
	}
}

func TestRunCompactionSkipsWriteWhenClean(t *testing.T) {
	now := func() time.Time { return date(2025, time.June, 10) }
	store := &fakeLogStore{records: []QueueRecord{
		qr("2", "20.06.2025", StatusPending, "01.06.2025 10:00:00", "U2"),
	}}

	res, err := RunCompaction(store, now)
	if err != nil {
		t.Fatalf("RunCompaction: %v", err)
	}
	if res.Removed != 0 || len(store.overwrote) != 0 {
		t.Fatalf("clean log must not be rewritten: result=%+v writes=%d", res, len(store.overwrote))
	}
}

func TestRunCompactionPropagatesConflict(t *testing.T) {
	now := func() time.Time { return date(2025, time.June, 10) }
	store := &fakeLogStore{
		records: []QueueRecord{
			qr("1", "02.06.2025", StatusRejected, "01.06.2025 10:00:00", "U1"),
		},
		writeErr: ErrLogChanged,
	}

	_, err := RunCompaction(store, now)
	if !errors.Is(err, ErrLogChanged) {
		t.Fatalf("err = %v, want ErrLogChanged", err)
	}
}

func TestRunCompactionLoadFailure(t *testing.T) {
	store := &fakeLogStore{loadErr: ErrLogUnavailable}
	_, err := RunCompaction(store, time.Now)
	if !errors.Is(err, ErrLogUnavailable) {
		t.Fatalf("err = %v, want ErrLogUnavailable", err)
	}
}

func TestFormatCompactionSummary(t *testing.T) {
	s := FormatCompactionSummary(CompactionResult{Removed: 3, Remaining: 7})
	if !strings.Contains(s, "removed 3") || !strings.Contains(s, "7 remaining") {
		t.Fatalf("summary = %q", s)
	}
	s = FormatCompactionSummary(CompactionResult{Remaining: 7})
	if !strings.Contains(s, "nothing to remove") {
		t.Fatalf("summary = %q", s)
	}
}
