package main

import (
	"fmt"
	"log"
	"time"
)

// CompactionPlan is the pure result of one compaction pass over the log.
type CompactionPlan struct {
	Keep    []QueueRecord
	Removed int
}

// CompactRecords prunes the record log without touching storage. Three drop
// rules, evaluated per row as a union:
//
//  1. every rejected row, unconditionally;
//  2. rows superseded by the same submitter whose target date already passed;
//  3. when an ID's current row is approved: older pending/approved rows from
//     the same submitter, and -- once the approved visit date itself has
//     passed -- older pending/approved rows from other submitters too.
//
// The current row for every surviving ID is always kept, which makes the pass
// idempotent: a second run with no intervening writes removes nothing.
func CompactRecords(records []QueueRecord, today time.Time) CompactionPlan {
	day := midnightUTC(today)
	drop := make(map[int]bool)

	// Rejected rows are purged regardless of recency. Rejection history is
	// deliberately unrecoverable.
	for i, r := range records {
		if r.Status == StatusRejected {
			drop[i] = true
		}
	}

	// Locate the current row per ID: max ModifiedAt, ties resolved by log
	// order, same as Materialize.
	latest := make(map[string]int)
	for i, r := range records {
		j, seen := latest[r.ID]
		if !seen {
			latest[r.ID] = i
			continue
		}
		ti, tj := r.ModifiedTime(), records[j].ModifiedTime()
		if ti.After(tj) || ti.Equal(tj) {
			latest[r.ID] = i
		}
	}

	for i, r := range records {
		j := latest[r.ID]
		if i == j {
			continue
		}
		cur := records[j]
		if !r.ModifiedTime().Before(cur.ModifiedTime()) {
			continue
		}
		sameSubmitter := r.SubmitterID == cur.SubmitterID

		if sameSubmitter {
			if t, ok := r.TargetTime(); ok && t.Before(day) {
				drop[i] = true
			}
		}
		if cur.Status == StatusApproved {
			obsolete := r.Status == StatusPending || r.Status == StatusApproved
			if sameSubmitter && obsolete {
				drop[i] = true
			}
			if !sameSubmitter && obsolete {
				if t, ok := cur.TargetTime(); ok && t.Before(day) {
					// The visit is resolved and past; competing unresolved
					// claims for this ID are moot.
					drop[i] = true
				}
			}
		}
	}

	keep := make([]QueueRecord, 0, len(records)-len(drop))
	for i, r := range records {
		if !drop[i] {
			keep = append(keep, r)
		}
	}
	return CompactionPlan{Keep: keep, Removed: len(drop)}
}

// CompactionResult summarizes one executed compaction run.
type CompactionResult struct {
	Removed   int
	Remaining int
}

// RunCompaction loads the full log, computes the compacted set, and rewrites
// the sheet. The rewrite is guarded by the version token captured at load:
// if the log changed underneath us the run fails with ErrLogChanged and
// nothing is written, so a concurrent append is never silently dropped.
// A persistence failure leaves the stored log untouched.
func RunCompaction(store LogStore, now func() time.Time) (CompactionResult, error) {
	records, version, err := store.Load()
	if err != nil {
		return CompactionResult{}, fmt.Errorf("loading queue log: %w", err)
	}
	if len(records) == 0 {
		log.Printf("compaction: log already empty")
		return CompactionResult{}, nil
	}

	plan := CompactRecords(records, now())
	if plan.Removed == 0 {
		log.Printf("compaction: nothing to remove (%d records)", len(records))
		return CompactionResult{Remaining: len(records)}, nil
	}

	if err := store.Overwrite(plan.Keep, version); err != nil {
		return CompactionResult{}, fmt.Errorf("rewriting queue log: %w", err)
	}
	log.Printf("compaction: removed %d records, %d remaining", plan.Removed, len(plan.Keep))
	return CompactionResult{Removed: plan.Removed, Remaining: len(plan.Keep)}, nil
}

// FormatCompactionSummary renders a run result for the notification channel.
func FormatCompactionSummary(res CompactionResult) string {
	if res.Removed == 0 {
		return fmt.Sprintf("Queue cleanup finished: nothing to remove (%d records).", res.Remaining)
	}
	return fmt.Sprintf("Queue cleanup finished: removed %d stale records, %d remaining.", res.Removed, res.Remaining)
}
