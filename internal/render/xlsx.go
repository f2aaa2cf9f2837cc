package render

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/finquarry/finquarry/internal/facts"
)

// WriteXLSX exports the quarterly and annual wide tables to one workbook
// with a sheet per granularity. Currency columns are written at integer
// precision, per-share columns at full precision, matching FormatValue.
func WriteXLSX(path string, quarterly, annual facts.WideTable, kinds map[string]facts.UnitKind) error {
	f := xlsx.NewFile()

	if err := addTableSheet(f, "Quarterly", quarterly, kinds); err != nil {
		return err
	}
	if err := addTableSheet(f, "Annual", annual, kinds); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "render: save xlsx %s", path)
	}
	return nil
}

func addTableSheet(f *xlsx.File, name string, table facts.WideTable, kinds map[string]facts.UnitKind) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "render: add sheet %s", name)
	}

	header := sheet.AddRow()
	header.AddCell().SetString("period_end")
	for _, concept := range table.Concepts {
		header.AddCell().SetString(concept)
	}

	for _, row := range table.Rows {
		r := sheet.AddRow()
		r.AddCell().SetString(FormatEnd(row.End))
		for _, concept := range table.Concepts {
			cell := r.AddCell()
			v, ok := row.Values[concept]
			if !ok {
				continue // leave missing combinations blank
			}
			if kinds[concept] == facts.UnitCurrency {
				cell.SetFloatWithFormat(v, "#,##0")
			} else {
				cell.SetFloat(v)
			}
		}
	}

	return nil
}
