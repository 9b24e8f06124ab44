package main

import (
	"sort"
	"time"
)

// QueueState is the materialized view of the record log: one current record
// per ID. It is recomputed from the full log on each query and owned by the
// caller, never held in process-wide state.
type QueueState struct {
	current map[string]QueueRecord
}

// Materialize folds the record log into per-ID current records. For each ID
// the row with the maximum ModifiedAt wins; ties keep the later row in
// original log order. Rows with malformed timestamps sort as oldest, so they
// are current only when nothing else exists for the ID.
func Materialize(records []QueueRecord) *QueueState {
	type indexed struct {
		rec QueueRecord
		pos int
	}
	rows := make([]indexed, len(records))
	for i, r := range records {
		rows[i] = indexed{rec: r, pos: i}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].rec.ID != rows[j].rec.ID {
			return rows[i].rec.ID < rows[j].rec.ID
		}
		ti, tj := rows[i].rec.ModifiedTime(), rows[j].rec.ModifiedTime()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return rows[i].pos < rows[j].pos
	})

	current := make(map[string]QueueRecord, len(rows))
	for _, row := range rows {
		current[row.rec.ID] = row.rec // later rows overwrite earlier ones
	}
	return &QueueState{current: current}
}

// CurrentRecord returns the current record for one queue ID.
func (s *QueueState) CurrentRecord(id string) (QueueRecord, bool) {
	rec, ok := s.current[id]
	return rec, ok
}

// Len returns the number of distinct IDs in the view.
func (s *QueueState) Len() int {
	return len(s.current)
}

// ActiveQueue returns the current records that are approved and carry a
// target date, sorted by (target date, ID) for display.
func (s *QueueState) ActiveQueue() []QueueRecord {
	var active []QueueRecord
	for _, rec := range s.current {
		if rec.Status != StatusApproved || !rec.HasTargetDate() {
			continue
		}
		active = append(active, rec)
	}
	sort.Slice(active, func(i, j int) bool {
		ti, _ := active[i].TargetTime()
		tj, _ := active[j].TargetTime()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return active[i].ID < active[j].ID
	})
	return active
}

// UpcomingQueue returns the active queue restricted to target dates on or
// after today. Records with unparseable target dates are excluded.
func (s *QueueState) UpcomingQueue(today time.Time) []QueueRecord {
	day := midnightUTC(today)
	var upcoming []QueueRecord
	for _, rec := range s.ActiveQueue() {
		t, ok := rec.TargetTime()
		if !ok || t.Before(day) {
			continue
		}
		upcoming = append(upcoming, rec)
	}
	return upcoming
}

// ActiveQueueOn returns the active entries scheduled for one specific date,
// sorted by ID.
func (s *QueueState) ActiveQueueOn(date time.Time) []QueueRecord {
	day := midnightUTC(date)
	var entries []QueueRecord
	for _, rec := range s.ActiveQueue() {
		if t, ok := rec.TargetTime(); ok && t.Equal(day) {
			entries = append(entries, rec)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}
