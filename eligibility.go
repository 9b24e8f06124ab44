package main

import (
	"errors"
	"strings"
	"time"
)

// ErrNoStatsData means eligibility cannot be decided because the throughput
// history is empty or unusable.
var ErrNoStatsData = errors.New("no throughput history available")

// EligibilityResult is the outcome of the missed-turn check.
type EligibilityResult struct {
	Allowed     bool
	LastAttempt bool // missed by exactly one working day: allowed once more
	MissedDays  int  // working days since the queue passed this number
}

// CheckEligibility decides whether a queue number may (re-)register. A
// number not yet reached by the queue is always eligible. A number the queue
// has already passed is still eligible when its current approved reservation
// is later than the last working day, or when it missed its turn by at most
// one day (the "last attempt" rule). Anything later is refused.
func CheckEligibility(id int, previousDate string, lastStatus RecordStatus, snap *StatsSnapshot, today time.Time) (EligibilityResult, error) {
	if snap == nil || len(snap.Rows) == 0 {
		return EligibilityResult{}, ErrNoStatsData
	}
	maxRow, ok := snap.MaxAdmitted()
	if !ok {
		return EligibilityResult{}, ErrNoStatsData
	}

	if id >= maxRow.LastAdmitted {
		return EligibilityResult{Allowed: true}, nil
	}

	lastWorkingDay := PrevWorkingDayOrSame(today)
	if prev, err := time.Parse(dateLayout, strings.TrimSpace(previousDate)); err == nil {
		if prev.After(lastWorkingDay) && lastStatus == StatusApproved {
			return EligibilityResult{Allowed: true}, nil
		}
	}

	// Count the days since the queue first passed this number: a running
	// maximum over the chronological history, counting every day on which
	// that maximum already exceeded the id.
	missed := 0
	running := 0
	for _, row := range snap.Rows {
		if row.LastAdmitted > running {
			running = row.LastAdmitted
		}
		if running > id {
			missed++
		}
	}
	if missed <= 1 {
		return EligibilityResult{Allowed: true, LastAttempt: true, MissedDays: missed}, nil
	}
	return EligibilityResult{Allowed: false, MissedDays: missed}, nil
}
