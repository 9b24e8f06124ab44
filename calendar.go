package main

import "time"

// The business-ordinal axis indexes weekdays on a 5-day week. The anchor,
// Monday 5 January 1970, is ordinal 0. Saturday and Sunday collapse forward
// onto the following Monday's slot, so a weekend date shares its ordinal with
// the next Monday. The forecast distribution lives on this axis, which keeps
// weekend gaps from stretching the fitted trend.
var ordinalAnchor = time.Date(1970, time.January, 5, 0, 0, 0, 0, time.UTC)

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

// midnightUTC strips the time-of-day and zone so that day arithmetic is exact.
func midnightUTC(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// BusinessOrdinal converts a calendar date to its business ordinal.
func BusinessOrdinal(d time.Time) int {
	diff := int(midnightUTC(d).Sub(ordinalAnchor) / (24 * time.Hour))
	weeks := floorDiv(diff, 7)
	days := floorMod(diff, 7)
	if days > 5 {
		days = 5
	}
	return weeks*5 + days
}

// DateFromOrdinal is the inverse mapping. Ordinals are weekday-aligned by
// construction, so the result is always a Monday-Friday date.
func DateFromOrdinal(ordinal int) time.Time {
	weeks := floorDiv(ordinal, 5)
	days := floorMod(ordinal, 5)
	return ordinalAnchor.AddDate(0, 0, weeks*7+days)
}

func isWorkingDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// NextWorkingDays returns the next n working-day dates strictly after `after`,
// in order.
func NextWorkingDays(after time.Time, n int) []time.Time {
	days := make([]time.Time, 0, n)
	d := midnightUTC(after)
	for len(days) < n {
		d = d.AddDate(0, 0, 1)
		if isWorkingDay(d) {
			days = append(days, d)
		}
	}
	return days
}

// NextWorkingDayAfter returns the first working day strictly after d.
func NextWorkingDayAfter(d time.Time) time.Time {
	next := midnightUTC(d).AddDate(0, 0, 1)
	for !isWorkingDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// PrevWorkingDayOrSame returns d itself when it is a working day, otherwise
// the nearest working day before it.
func PrevWorkingDayOrSame(d time.Time) time.Time {
	prev := midnightUTC(d)
	for !isWorkingDay(prev) {
		prev = prev.AddDate(0, 0, -1)
	}
	return prev
}

// EndDate returns the date reached by counting workDays working days from
// start. Start itself counts as day one when it is a working day; a weekend
// start counts from the first following weekday.
func EndDate(start time.Time, workDays int) time.Time {
	d := midnightUTC(start)
	added := 0
	if isWorkingDay(d) {
		added = 1
	}
	for added < workDays {
		d = d.AddDate(0, 0, 1)
		if isWorkingDay(d) {
			added++
		}
	}
	return d
}
