package main

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Forecaster produces a service-date distribution for a queue number from the
// historical throughput snapshot. A nil result with a nil error means there
// is not enough history to fit anything; callers fall back to
// non-probabilistic behavior.
type Forecaster interface {
	Forecast(id int, snap *StatsSnapshot) (*ForecastResult, error)
}

// minForecastDays is the minimum number of distinct throughput days required
// before a fit is attempted.
const minForecastDays = 5

// TrendForecaster fits a linear trend to the last-admitted number over the
// business-ordinal axis and models the residual spread as a location-scale
// Student-t distribution. Inverting the trend at the requested queue number
// gives the distribution of the ordinal at which that number is reached.
type TrendForecaster struct {
	MinDays int // 0 means minForecastDays
}

// minDays floors the configured minimum at 3: two points leave zero degrees
// of freedom and no usable t distribution.
func (f TrendForecaster) minDays() int {
	if f.MinDays >= 3 {
		return f.MinDays
	}
	if f.MinDays > 0 {
		return 3
	}
	return minForecastDays
}

func (f TrendForecaster) Forecast(id int, snap *StatsSnapshot) (*ForecastResult, error) {
	if snap == nil {
		return nil, nil
	}

	// One point per day: the last usable last-admitted number.
	byDay := make(map[int]int)
	for _, row := range snap.Rows {
		if row.LastAdmitted <= 0 {
			continue
		}
		byDay[BusinessOrdinal(row.Date)] = row.LastAdmitted
	}
	if len(byDay) < f.minDays() {
		return nil, nil
	}

	ordinals := make([]int, 0, len(byDay))
	for o := range byDay {
		ordinals = append(ordinals, o)
	}
	sort.Ints(ordinals)

	xs := make([]float64, len(ordinals))
	ys := make([]float64, len(ordinals))
	for i, o := range ordinals {
		xs[i] = float64(o)
		ys[i] = float64(byDay[o])
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if beta <= 0 || math.IsNaN(beta) {
		// The queue is not moving forward; no meaningful forecast exists.
		return nil, nil
	}

	// Residual spread on the admission-number axis, converted to the ordinal
	// axis through the slope.
	n := float64(len(xs))
	var ssr float64
	for i := range xs {
		res := ys[i] - (alpha + beta*xs[i])
		ssr += res * res
	}
	df := n - 2
	scale := math.Sqrt(ssr/df) / beta
	if scale <= 0 || math.IsNaN(scale) {
		// A perfect fit still carries day-to-day uncertainty; half a
		// business day keeps the distribution well formed.
		scale = 0.5
	}

	loc := (float64(id) - alpha) / beta
	dist := distuv.StudentsT{Mu: loc, Sigma: scale, Nu: df}

	return &ForecastResult{
		Mean: DateFromOrdinal(int(math.Round(loc))),
		L90:  DateFromOrdinal(int(math.Floor(dist.Quantile(0.05)))),
		H90:  DateFromOrdinal(int(math.Ceil(dist.Quantile(0.95)))),
		Dist: Dist{Loc: loc, Scale: scale, DF: df},
	}, nil
}
