package facts

import (
	"sort"

	"github.com/rotisserie/eris"
)

// Admission bands for period lengths, in days. Fiscal calendars wobble a few
// days around exact quarter and year boundaries, so these are tolerance
// bands rather than exact arithmetic. Periods outside the bands (stub
// periods from fiscal-year changes, trailing nine-month totals) are dropped.
const (
	quarterMinDays = 89
	quarterMaxDays = 91
	annualMinDays  = 363
)

// MissingSpanError reports that a concept's observations lack start dates,
// so period-length admission cannot run. Callers route these concepts
// through NormalizeNoSpan.
type MissingSpanError struct {
	Concept string
}

func (e *MissingSpanError) Error() string {
	return "facts: concept " + e.Concept + " has observations without start dates"
}

// Normalizer converts raw observation lists into quarterly and annual
// series. Form tags select which disclosure types feed each series;
// observations from any other form (amendments, foreign forms) are ignored.
type Normalizer struct {
	AnnualForm  string
	QuarterForm string
}

// Normalize runs the span-filtered primary path. Every observation must
// carry a start date; if any does not, it returns a MissingSpanError and
// the caller falls back to NormalizeNoSpan. An empty input yields two empty
// series, not an error.
func (n Normalizer) Normalize(obs []Observation) (quarterly, annual Series, err error) {
	for _, o := range obs {
		if o.Start == nil {
			return nil, nil, eris.Wrap(&MissingSpanError{Concept: o.Concept}, "facts: normalize")
		}
	}
	quarterly, annual = n.normalize(obs, true)
	return quarterly, annual, nil
}

// NormalizeNoSpan runs the fallback path for point-in-time concepts: the
// same pipeline with the period-length admission filter skipped, so every
// de-duplicated observation is admitted regardless of span.
func (n Normalizer) NormalizeNoSpan(obs []Observation) (quarterly, annual Series) {
	return n.normalize(obs, false)
}

func (n Normalizer) normalize(obs []Observation, spanFilter bool) (quarterly, annual Series) {
	var annualPool, quarterPool []Observation
	for _, o := range obs {
		switch o.Form {
		case n.AnnualForm:
			annualPool = append(annualPool, o)
		case n.QuarterForm:
			quarterPool = append(quarterPool, o)
		}
	}

	annual = buildSeries(annualPool, spanFilter, annualMinDays, -1)
	quarterly = buildSeries(quarterPool, spanFilter, quarterMinDays, quarterMaxDays)

	quarterly = inferMissingQuarters(quarterly, annual)
	return quarterly, annual
}

// buildSeries sorts, de-duplicates, and filters one pool of observations.
// Sorting by (end ascending, filed descending) guarantees that the first
// observation seen per period-end is the most recently filed one, so
// restatements win over originals.
func buildSeries(pool []Observation, spanFilter bool, minDays, maxDays int) Series {
	sorted := make([]Observation, len(pool))
	copy(sorted, pool)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].End.Equal(sorted[j].End) {
			return sorted[i].End.Before(sorted[j].End)
		}
		return sorted[i].Filed.After(sorted[j].Filed)
	})

	var series Series
	for _, o := range sorted {
		if len(series) > 0 && series[len(series)-1].End.Equal(o.End) {
			continue // restated period already captured
		}
		if spanFilter {
			days := o.SpanDays()
			if days < minDays || (maxDays > 0 && days > maxDays) {
				continue
			}
		}
		series = append(series, Point{End: o.End, Value: o.Value})
	}
	return series
}

// q4State tracks a run of consecutive quarters within one calendar year.
// It is the accumulator for Q4-by-subtraction inference: issuers file three
// 10-Qs and a 10-K, so the fourth quarter is never separately disclosed and
// must be recovered as annual total minus the first three quarters.
type q4State struct {
	accumulating bool
	year         int
	sum          float64
	count        int
}

// observe feeds one quarterly point through the state machine. It returns
// the running state after the transition.
func (s q4State) observe(p Point) q4State {
	year := p.End.Year()
	if !s.accumulating || year != s.year {
		return q4State{accumulating: true, year: year, sum: p.Value, count: 1}
	}
	s.sum += p.Value
	s.count++
	return s
}

// reset returns the machine to idle after an inference fires.
func (s q4State) reset() q4State { return q4State{} }

// inferMissingQuarters walks the quarterly series in date order and, each
// time three consecutive quarters of the same calendar year have
// accumulated, looks for an annual total dated at or after the third
// quarter within that year. When one exists, a synthetic fourth-quarter
// point equal to annual minus the running sum is inserted at the annual
// period's end date.
func inferMissingQuarters(quarterly, annual Series) Series {
	if len(quarterly) == 0 || len(annual) == 0 {
		return quarterly
	}

	var synthetic []Point
	state := q4State{}
	for _, p := range quarterly {
		state = state.observe(p)
		if state.count < 3 {
			continue
		}
		if q4, ok := annualRemainder(annual, p, state); ok {
			if !quarterly.Has(q4.End) {
				synthetic = append(synthetic, q4)
			}
			state = state.reset()
		}
	}

	if len(synthetic) == 0 {
		return quarterly
	}
	merged := append(quarterly, synthetic...)
	merged.sortByEnd()
	return merged
}

// annualRemainder finds the annual total covering the accumulated quarters
// and returns the inferred fourth-quarter point. The annual period must end
// at or after the third quarter's end and within the same calendar year.
func annualRemainder(annual Series, third Point, state q4State) (Point, bool) {
	for _, a := range annual {
		if a.End.Before(third.End) {
			continue
		}
		if a.End.Year() != state.year {
			continue
		}
		return Point{End: a.End, Value: a.Value - state.sum}, true
	}
	return Point{}, false
}
