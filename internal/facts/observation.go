// Package facts normalizes raw EDGAR disclosure observations into
// de-duplicated, chronologically ordered quarterly and annual series.
package facts

import (
	"strconv"
	"strings"
	"time"

	"github.com/finquarry/finquarry/internal/edgar"
)

// UnitKind classifies a fact's unit tag for presentation purposes.
type UnitKind int

const (
	UnitOther UnitKind = iota
	UnitCurrency
	UnitPerShare
)

func (k UnitKind) String() string {
	switch k {
	case UnitCurrency:
		return "currency"
	case UnitPerShare:
		return "per-share"
	default:
		return "other"
	}
}

// DetectUnitKind classifies an EDGAR unit tag. Plain ISO currency codes
// ("USD") are currency amounts; ratio units with a share denominator
// ("USD/shares") are per-share values; anything else ("shares", "pure")
// is left untyped.
func DetectUnitKind(unit string) UnitKind {
	if strings.Contains(unit, "/") {
		if strings.EqualFold(strings.SplitN(unit, "/", 2)[1], "shares") {
			return UnitPerShare
		}
		return UnitOther
	}
	if len(unit) == 3 && unit == strings.ToUpper(unit) {
		return UnitCurrency
	}
	return UnitOther
}

// Observation is one raw disclosed value for a concept. Start is nil for
// point-in-time concepts (balance sheet totals), set for flow concepts.
type Observation struct {
	Concept string
	Start   *time.Time
	End     time.Time
	Filed   time.Time
	Value   float64
	Form    string
	Unit    string
}

// SpanDays returns the period length in days, or -1 when Start is absent.
func (o Observation) SpanDays() int {
	if o.Start == nil {
		return -1
	}
	return int(o.End.Sub(*o.Start).Hours() / 24)
}

const dateLayout = "2006-01-02"

// FromFact converts one concept's raw EDGAR values into observations.
// Values with unparsable dates or non-numeric payloads are dropped.
func FromFact(concept, unit string, values []edgar.FactValue) []Observation {
	obs := make([]Observation, 0, len(values))
	for _, v := range values {
		end, err := time.Parse(dateLayout, v.End)
		if err != nil {
			continue
		}
		filed, err := time.Parse(dateLayout, v.Filed)
		if err != nil {
			continue
		}
		val, ok := toFloat(v.Val)
		if !ok {
			continue
		}

		o := Observation{
			Concept: concept,
			End:     end,
			Filed:   filed,
			Value:   val,
			Form:    v.Form,
			Unit:    unit,
		}
		if v.Start != "" {
			if start, err := time.Parse(dateLayout, v.Start); err == nil {
				o.Start = &start
			}
		}
		obs = append(obs, o)
	}
	return obs
}

// toFloat coerces the loosely typed EDGAR val field to a float64.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
