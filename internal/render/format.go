// Package render turns normalized fact tables into charts, spreadsheets,
// and formatted terminal output. All rendering options are passed
// explicitly; the package holds no mutable defaults.
package render

import (
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/finquarry/finquarry/internal/facts"
)

var printer = message.NewPrinter(language.English)

// FormatValue renders a normalized value for display. Currency amounts are
// shown at integer precision with digit grouping; per-share and untyped
// values keep full precision.
func FormatValue(v float64, kind facts.UnitKind) string {
	if kind == facts.UnitCurrency {
		return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(0)))
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

const dateLayout = "2006-01-02"

// FormatEnd renders a period-end date.
func FormatEnd(t time.Time) string {
	return t.Format(dateLayout)
}
