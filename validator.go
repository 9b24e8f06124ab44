package main

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	ErrNoDateFound    = errors.New("no date found in input")
	ErrDateNotFuture  = errors.New("date must be after today")
	ErrWeekendDate    = errors.New("date falls on a weekend")
	ErrSameAsPrevious = errors.New("date equals the current reservation date")
)

// chosenDateRe matches dd.mm.yyyy or dd.mm.yy anywhere in the input, so a
// tapped button label with a weekday prefix and probability suffix still
// parses.
var chosenDateRe = regexp.MustCompile(`(\d{1,2})\W(\d{1,2})\W(\d{4}|\d{2})`)

// ParseChosenDate extracts a calendar date from free-form user input.
func ParseChosenDate(input string) (time.Time, error) {
	m := chosenDateRe.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return time.Time{}, ErrNoDateFound
	}
	layout := dateLayout
	if len(m[3]) == 2 {
		layout = shortDateLayout
	}
	t, err := time.Parse(layout, pad2(m[1])+"."+pad2(m[2])+"."+m[3])
	if err != nil {
		return time.Time{}, ErrNoDateFound
	}
	return t, nil
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

type WarnKind int

const (
	WarnNone WarnKind = iota
	WarnTooEarly
	WarnTooFar
)

// ChoiceWarning is a forecast-based objection to a user-chosen date.
type ChoiceWarning struct {
	Kind               WarnKind
	Message            string
	ChosenProbability  float64
	RangeStart         time.Time // recommended range, too-early warnings
	RangeEnd           time.Time
	ExampleDate        time.Time // nearer alternative, too-far warnings
	ExampleProbability float64
}

// WarnState tracks the one-shot override: resubmitting the exact date that
// was just warned about accepts it. Owned by the caller, one per interaction.
type WarnState struct {
	warnedDate string
}

func (s *WarnState) Reset() { s.warnedDate = "" }

// Validator checks user-chosen dates against the forecast.
type Validator struct {
	LookaheadDays int // size of the standard date-picker window
	Now           func() time.Time
}

func NewValidator(lookaheadDays int) *Validator {
	return &Validator{LookaheadDays: lookaheadDays, Now: time.Now}
}

// PreCheck applies the non-statistical rules: the date must be in the
// future, on a working day, and different from the current reservation.
func (v *Validator) PreCheck(date time.Time, previousDate string) error {
	today := midnightUTC(v.Now())
	day := midnightUTC(date)
	if !day.After(today) {
		return ErrDateNotFuture
	}
	if !isWorkingDay(day) {
		return ErrWeekendDate
	}
	if prev, err := time.Parse(dateLayout, strings.TrimSpace(previousDate)); err == nil && day.Equal(prev) {
		return ErrSameAsPrevious
	}
	return nil
}

// ValidateChoice compares a chosen date against the forecast. It returns nil
// when the date needs no warning, or when the caller's WarnState shows the
// identical date was already warned about once (the override). Choosing a
// different date re-arms the warning.
func (v *Validator) ValidateChoice(date time.Time, f *ForecastResult, state *WarnState) *ChoiceWarning {
	if f == nil {
		state.Reset()
		return nil
	}
	day := midnightUTC(date)
	dateStr := day.Format(dateLayout)
	if state.warnedDate == dateStr {
		// The user re-entered the warned date: accept it.
		state.Reset()
		return nil
	}

	warning := v.evaluate(day, f)
	if warning == nil {
		state.Reset()
		return nil
	}
	state.warnedDate = dateStr
	return warning
}

func (v *Validator) evaluate(day time.Time, f *ForecastResult) *ChoiceWarning {
	chosenProb := Probability(day, f.Dist)

	if day.Before(midnightUTC(f.Mean)) && chosenProb < 50 {
		probMean := Probability(f.Mean, f.Dist)
		probH90 := Probability(f.H90, f.Dist)
		return &ChoiceWarning{
			Kind:              WarnTooEarly,
			ChosenProbability: chosenProb,
			RangeStart:        f.Mean,
			RangeEnd:          f.H90,
			Message: fmt.Sprintf(
				"The chance of being admitted by %s is low (%.0f%%). Recommended range: %s (%.0f%%) - %s (%.0f%%).",
				day.Format(dateLayout), chosenProb,
				f.Mean.Format(dateLayout), probMean,
				f.H90.Format(dateLayout), probH90),
		}
	}

	if day.After(midnightUTC(f.H90)) {
		// A date slightly past h90 is fine when h90 itself is near or in the
		// past; only dates beyond the standard picker window are flagged.
		windowStart := NextWorkingDayAfter(v.Now())
		windowEnd := EndDate(windowStart, v.LookaheadDays)
		threshold := midnightUTC(f.H90)
		if windowEnd.After(threshold) {
			threshold = windowEnd
		}
		if day.After(threshold) {
			example := midnightUTC(f.H90)
			if example.Before(windowStart) {
				example = windowStart
			}
			exampleProb := Probability(example, f.Dist)
			return &ChoiceWarning{
				Kind:               WarnTooFar,
				ChosenProbability:  chosenProb,
				ExampleDate:        example,
				ExampleProbability: exampleProb,
				Message: fmt.Sprintf(
					"%s is unnecessarily far in the future. Admission is nearly guaranteed much sooner (%.0f%% by %s).",
					day.Format(dateLayout), exampleProb, example.Format(dateLayout)),
			}
		}
	}
	return nil
}
