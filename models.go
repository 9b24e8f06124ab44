package main

import (
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout      = "02.01.2006"
	shortDateLayout = "02.01.06"
	timestampLayout = "02.01.2006 15:04:05"
)

type RecordStatus string

const (
	StatusPending  RecordStatus = "Pending"
	StatusApproved RecordStatus = "Approved"
	StatusRejected RecordStatus = "Rejected"
)

// ParseStatus normalizes a status cell from the log sheet. Unknown values map
// to Pending so that a typo in the sheet never promotes a record.
func ParseStatus(s string) RecordStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approved":
		return StatusApproved
	case "rejected":
		return StatusRejected
	default:
		return StatusPending
	}
}

// QueueRecord is one row of the append-only queue log. A reschedule or a
// cancellation is expressed as a new row for the same ID, never an edit;
// the row with the latest ModifiedAt is the current truth for its ID.
type QueueRecord struct {
	ID                   string // queue number, optional "/suffix" disambiguator ("9999" or "9999/1")
	TargetDate           string // DD.MM.YYYY, empty = no active reservation
	Notes                string
	Status               RecordStatus
	ModifiedAt           string // DD.MM.YYYY HH:MM:SS, the log's ordering key
	PreviousDate         string // audit pointer to the date this row supersedes
	SubmitterID          string
	SubmitterName        string
	SubmitterDisplayName string
}

// ModifiedTime parses the ordering key. A malformed timestamp sorts as the
// oldest possible value so one bad row can never shadow a valid newer one.
func (r QueueRecord) ModifiedTime() time.Time {
	t, err := time.Parse(timestampLayout, strings.TrimSpace(r.ModifiedAt))
	if err != nil {
		return time.Time{}
	}
	return t
}

// TargetTime parses the reservation date. ok is false for an empty or
// malformed cell.
func (r QueueRecord) TargetTime() (time.Time, bool) {
	s := strings.TrimSpace(r.TargetDate)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// HasTargetDate reports whether the row carries a non-empty reservation date.
func (r QueueRecord) HasTargetDate() bool {
	return strings.TrimSpace(r.TargetDate) != ""
}

// MainID extracts the numeric queue number from an ID string, dropping any
// "/suffix" disambiguator: "9999/1" -> 9999.
func MainID(id string) (int, bool) {
	id = strings.TrimSpace(id)
	digits := id
	if i := strings.IndexFunc(id, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		digits = id[:i]
	}
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Dist describes a location-scale Student-t distribution over the business
// ordinal axis.
type Dist struct {
	Loc   float64
	Scale float64
	DF    float64
}

// ForecastResult is the fitted forecast for one queue ID. It is computed on
// demand from a stats snapshot and never persisted.
type ForecastResult struct {
	Mean time.Time // expected service date
	L90  time.Time // lower bound of the 90% interval
	H90  time.Time // upper bound of the 90% interval
	Dist Dist
}

// ThroughputDay is one row of the historical admission stats table.
type ThroughputDay struct {
	Date          time.Time
	FirstAdmitted int
	LastAdmitted  int
}

// Served returns the number of people admitted that day, or 0 when the row
// does not carry a usable first/last pair.
func (d ThroughputDay) Served() int {
	if d.FirstAdmitted <= 0 || d.LastAdmitted < d.FirstAdmitted {
		return 0
	}
	return d.LastAdmitted - d.FirstAdmitted + 1
}

// StatsSnapshot is the cached copy of the historical throughput table.
type StatsSnapshot struct {
	Rows      []ThroughputDay // sorted by Date ascending
	FetchedAt time.Time
}

// MaxAdmitted returns the row carrying the highest last-admitted number.
func (s *StatsSnapshot) MaxAdmitted() (ThroughputDay, bool) {
	var best ThroughputDay
	found := false
	for _, row := range s.Rows {
		if !found || row.LastAdmitted > best.LastAdmitted {
			best = row
			found = true
		}
	}
	if !found || best.LastAdmitted <= 0 {
		return ThroughputDay{}, false
	}
	return best, true
}

// TrailingCounts returns up to n most recent positive daily throughput
// counts, oldest first. Used by the fallback probability heuristic.
func (s *StatsSnapshot) TrailingCounts(n int) []int {
	var counts []int
	for _, row := range s.Rows {
		if c := row.Served(); c > 0 {
			counts = append(counts, c)
		}
	}
	if len(counts) > n {
		counts = counts[len(counts)-n:]
	}
	return counts
}

// DistinctDays counts rows with a usable last-admitted number.
func (s *StatsSnapshot) DistinctDays() int {
	seen := make(map[string]bool)
	for _, row := range s.Rows {
		if row.LastAdmitted > 0 {
			seen[row.Date.Format(dateLayout)] = true
		}
	}
	return len(seen)
}
