package render

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rotisserie/eris"

	"github.com/finquarry/finquarry/internal/facts"
)

// ChartOptions configures one chart render call. There are no package
// defaults; callers pass the full set each time.
type ChartOptions struct {
	Title    string
	Subtitle string
	OutDir   string
	FileName string
}

// LineChart renders selected concepts of a wide table as one HTML line
// chart, one series per concept, gaps where a concept has no value for a
// date. Returns the written file path.
func LineChart(table facts.WideTable, concepts []string, o ChartOptions) (string, error) {
	if len(concepts) == 0 {
		concepts = table.Concepts
	}
	if len(table.Rows) == 0 {
		return "", eris.New("render: table has no rows")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: o.Title, Subtitle: o.Subtitle}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: o.Title}),
	)

	dates := make([]string, len(table.Rows))
	for i, row := range table.Rows {
		dates[i] = FormatEnd(row.End)
	}
	line.SetXAxis(dates)

	for _, concept := range concepts {
		data := make([]opts.LineData, len(table.Rows))
		for i, row := range table.Rows {
			if v, ok := row.Values[concept]; ok {
				data[i] = opts.LineData{Value: v}
			} else {
				data[i] = opts.LineData{Value: nil}
			}
		}
		line.AddSeries(shortConcept(concept), data)
	}

	return writeChart(line, o)
}

// CompareChart renders one concept across several issuers: one series per
// symbol, x axis the union of all period-ends.
func CompareChart(bySymbol map[string]facts.Series, o ChartOptions) (string, error) {
	if len(bySymbol) == 0 {
		return "", eris.New("render: nothing to compare")
	}

	table := facts.BuildWideTable(bySymbol)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: o.Title, Subtitle: o.Subtitle}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: o.Title}),
	)

	dates := make([]string, len(table.Rows))
	for i, row := range table.Rows {
		dates[i] = FormatEnd(row.End)
	}
	line.SetXAxis(dates)

	for _, symbol := range table.Concepts {
		data := make([]opts.LineData, len(table.Rows))
		for i, row := range table.Rows {
			if v, ok := row.Values[symbol]; ok {
				data[i] = opts.LineData{Value: v}
			} else {
				data[i] = opts.LineData{Value: nil}
			}
		}
		line.AddSeries(symbol, data)
	}

	return writeChart(line, o)
}

func writeChart(line *charts.Line, o ChartOptions) (string, error) {
	if err := os.MkdirAll(o.OutDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "render: mkdir %s", o.OutDir)
	}
	name := o.FileName
	if name == "" {
		name = "chart.html"
	}
	path := filepath.Join(o.OutDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrapf(err, "render: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	if err := line.Render(f); err != nil {
		return "", eris.Wrapf(err, "render: chart %s", path)
	}
	return path, nil
}

// shortConcept strips the namespace prefix for chart legends.
func shortConcept(concept string) string {
	if i := strings.IndexByte(concept, ':'); i >= 0 {
		return concept[i+1:]
	}
	return concept
}
