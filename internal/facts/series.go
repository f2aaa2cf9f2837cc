package facts

import (
	"sort"
	"time"
)

// Point is one period-end value in a normalized series.
type Point struct {
	End   time.Time `json:"end"`
	Value float64   `json:"value"`
}

// Series is an ordered mapping from period-end date to value: dates strictly
// increasing, at most one point per period-end.
type Series []Point

// Len returns the number of points.
func (s Series) Len() int { return len(s) }

// Get returns the value at the given period-end.
func (s Series) Get(end time.Time) (float64, bool) {
	i := sort.Search(len(s), func(i int) bool { return !s[i].End.Before(end) })
	if i < len(s) && s[i].End.Equal(end) {
		return s[i].Value, true
	}
	return 0, false
}

// Has reports whether the series contains a point at the given period-end.
func (s Series) Has(end time.Time) bool {
	_, ok := s.Get(end)
	return ok
}

// Values returns the point values in date order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Ends returns the period-end dates in order.
func (s Series) Ends() []time.Time {
	out := make([]time.Time, len(s))
	for i, p := range s {
		out[i] = p.End
	}
	return out
}

// Last returns the most recent point, or false when the series is empty.
func (s Series) Last() (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	return s[len(s)-1], true
}

// Tail returns the last n points (the whole series when it is shorter).
func (s Series) Tail(n int) Series {
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

func (s Series) sortByEnd() {
	sort.Slice(s, func(i, j int) bool { return s[i].End.Before(s[j].End) })
}
