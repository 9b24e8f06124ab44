package main

import (
	"errors"
	"testing"
	"time"
)

// eligibilitySnapshot covers six working days with LastAdmitted 100..200.
func eligibilitySnapshot() *StatsSnapshot {
	days := NextWorkingDays(date(2025, time.May, 30), 6)
	rows := make([]ThroughputDay, len(days))
	for i, d := range days {
		rows[i] = ThroughputDay{Date: d, FirstAdmitted: 100 + 20*i - 19, LastAdmitted: 100 + 20*i}
	}
	return &StatsSnapshot{Rows: rows, FetchedAt: days[len(days)-1]}
}

func TestEligibilityAheadOfQueue(t *testing.T) {
	res, err := CheckEligibility(210, "", StatusPending, eligibilitySnapshot(), date(2025, time.June, 10))
	if err != nil {
		t.Fatalf("CheckEligibility: %v", err)
	}
	if !res.Allowed || res.LastAttempt {
		t.Fatalf("result = %+v, want plainly allowed", res)
	}

	// Equal to the current maximum counts as not yet passed.
	res, _ = CheckEligibility(200, "", StatusPending, eligibilitySnapshot(), date(2025, time.June, 10))
	if !res.Allowed {
		t.Fatalf("result = %+v, id at the frontier should be allowed", res)
	}
}

func TestEligibilityApprovedFutureReservation(t *testing.T) {
	// The queue passed 150 long ago, but a later approved reservation stands.
	res, err := CheckEligibility(150, "20.06.2025", StatusApproved, eligibilitySnapshot(), date(2025, time.June, 10))
	if err != nil {
		t.Fatalf("CheckEligibility: %v", err)
	}
	if !res.Allowed || res.LastAttempt {
		t.Fatalf("result = %+v, want allowed via the future reservation", res)
	}

	// A pending reservation on the same date does not shield the number.
	res, _ = CheckEligibility(150, "20.06.2025", StatusPending, eligibilitySnapshot(), date(2025, time.June, 10))
	if res.Allowed {
		t.Fatalf("result = %+v, pending reservation must not count", res)
	}
}

func TestEligibilityLastAttempt(t *testing.T) {
	// 195 was passed on the final recorded day only: one missed day.
	res, err := CheckEligibility(195, "", StatusPending, eligibilitySnapshot(), date(2025, time.June, 10))
	if err != nil {
		t.Fatalf("CheckEligibility: %v", err)
	}
	if !res.Allowed || !res.LastAttempt || res.MissedDays != 1 {
		t.Fatalf("result = %+v, want last-attempt with 1 missed day", res)
	}
}

func TestEligibilityRefused(t *testing.T) {
	// 130 was passed on four of the six recorded days.
	res, err := CheckEligibility(130, "", StatusPending, eligibilitySnapshot(), date(2025, time.June, 10))
	if err != nil {
		t.Fatalf("CheckEligibility: %v", err)
	}
	if res.Allowed || res.MissedDays != 4 {
		t.Fatalf("result = %+v, want refused with 4 missed days", res)
	}
}

func TestEligibilityNoData(t *testing.T) {
	if _, err := CheckEligibility(100, "", StatusPending, nil, date(2025, time.June, 10)); !errors.Is(err, ErrNoStatsData) {
		t.Fatalf("nil snapshot: err = %v", err)
	}
	empty := &StatsSnapshot{}
	if _, err := CheckEligibility(100, "", StatusPending, empty, date(2025, time.June, 10)); !errors.Is(err, ErrNoStatsData) {
		t.Fatalf("empty snapshot: err = %v", err)
	}
}
