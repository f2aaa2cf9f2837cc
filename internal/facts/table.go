package facts

import (
	"sort"
	"time"
)

// Row is one date of a wide table. Values holds only the concepts that
// disclosed a value for this period-end; missing combinations are absent.
type Row struct {
	End    time.Time          `json:"end"`
	Values map[string]float64 `json:"values"`
}

// WideTable is the outer join of per-concept series: the union of all
// period-end dates as rows, one column per concept. Rows ascend by date,
// columns sort by concept id.
type WideTable struct {
	Concepts []string `json:"concepts"`
	Rows     []Row    `json:"rows"`
}

// BuildWideTable joins per-concept series into a single wide table.
func BuildWideTable(series map[string]Series) WideTable {
	concepts := make([]string, 0, len(series))
	for c := range series {
		concepts = append(concepts, c)
	}
	sort.Strings(concepts)

	byDate := make(map[time.Time]map[string]float64)
	for concept, s := range series {
		for _, p := range s {
			row, ok := byDate[p.End]
			if !ok {
				row = make(map[string]float64)
				byDate[p.End] = row
			}
			row[concept] = p.Value
		}
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	rows := make([]Row, len(dates))
	for i, d := range dates {
		rows[i] = Row{End: d, Values: byDate[d]}
	}

	return WideTable{Concepts: concepts, Rows: rows}
}

// Column extracts one concept's series back out of the table.
func (t WideTable) Column(concept string) Series {
	var s Series
	for _, row := range t.Rows {
		if v, ok := row.Values[concept]; ok {
			s = append(s, Point{End: row.End, Value: v})
		}
	}
	return s
}

// Ends returns the table's row dates in order.
func (t WideTable) Ends() []time.Time {
	out := make([]time.Time, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row.End
	}
	return out
}
