package main

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// Probability returns the cumulative probability, in percent, that the queue
// reaches the forecast target by the end of the given date. The CDF is
// evaluated at ordinal+1 because the ordinal indexes the start of the day.
// Degenerate inputs clamp to 0 or 100 instead of failing.
func Probability(date time.Time, dist Dist) float64 {
	if dist.Scale <= 0 || dist.DF <= 0 {
		return 0
	}
	t := distuv.StudentsT{Mu: dist.Loc, Sigma: dist.Scale, Nu: dist.DF}
	p := t.CDF(float64(BusinessOrdinal(date)+1)) * 100
	if math.IsNaN(p) {
		return 0
	}
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// DateOption is one presentable date choice with its annotated label.
type DateOption struct {
	Date        time.Time
	Label       string
	Probability float64
}

// probabilityAnnotationCutoff suppresses noisy near-zero percentages on
// date labels.
const probabilityAnnotationCutoff = 0.1

// RankedDateOptions builds labeled options for a list of candidate dates.
// When a distribution is supplied, each label carries the admission
// probability for that date unless it rounds below the display cutoff.
func RankedDateOptions(candidates []time.Time, dist *Dist) []DateOption {
	options := make([]DateOption, 0, len(candidates))
	for _, d := range candidates {
		opt := DateOption{
			Date:  d,
			Label: fmt.Sprintf("%s: %s", d.Format("Mon"), d.Format(shortDateLayout)),
		}
		if dist != nil {
			opt.Probability = Probability(d, *dist)
			if opt.Probability >= probabilityAnnotationCutoff {
				opt.Label = fmt.Sprintf("%s (%.0f%%)", opt.Label, opt.Probability)
			}
		}
		options = append(options, opt)
	}
	return options
}

// FallbackProbability estimates the chance that an entry at the given queue
// position is served on a single day, from the trailing daily throughput
// counts: the share of recent days whose throughput reached that position.
// Used only when no fitted distribution is available.
func FallbackProbability(rank int, trailingCounts []int) float64 {
	if rank <= 0 || len(trailingCounts) == 0 {
		return 0
	}
	covered := 0
	for _, c := range trailingCounts {
		if c >= rank {
			covered++
		}
	}
	return float64(covered) / float64(len(trailingCounts)) * 100
}

// fallbackWindowDays is the trailing window consulted by the heuristic.
const fallbackWindowDays = 10

// DailyEntryProbabilities computes, for an ordered queue of IDs scheduled on
// targetDate, each entry's probability of being admitted that day. IDs with a
// fitted forecast use the model; the rest use the throughput heuristic with
// their position in the list as rank.
func DailyEntryProbabilities(ids []string, targetDate time.Time, snap *StatsSnapshot, fc Forecaster) map[string]float64 {
	probs := make(map[string]float64, len(ids))
	trailing := snap.TrailingCounts(fallbackWindowDays)
	for rank, id := range ids {
		num, ok := MainID(id)
		if ok {
			if f, err := fc.Forecast(num, snap); err == nil && f != nil {
				probs[id] = math.Round(Probability(targetDate, f.Dist)*10) / 10
				continue
			}
		}
		probs[id] = math.Round(FallbackProbability(rank+1, trailing)*10) / 10
	}
	return probs
}
