package facts

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finquarry/finquarry/internal/edgar"
)

const batchRecord = `{
  "cik": 320193,
  "entityName": "Example Corp",
  "facts": {
    "us-gaap": {
      "Revenues": {
        "label": "Revenues",
        "units": {
          "USD": [
            {"start": "2023-01-01", "end": "2023-03-31", "val": 10, "form": "10-Q", "filed": "2023-05-01"},
            {"start": "2023-04-01", "end": "2023-06-30", "val": 20, "form": "10-Q", "filed": "2023-08-01"},
            {"start": "2023-07-01", "end": "2023-09-29", "val": 30, "form": "10-Q", "filed": "2023-11-01"},
            {"start": "2023-01-01", "end": "2023-12-31", "val": 100, "form": "10-K", "filed": "2024-02-01"}
          ]
        }
      },
      "Assets": {
        "label": "Assets",
        "units": {
          "USD": [
            {"end": "2023-09-29", "val": 900, "form": "10-Q", "filed": "2023-11-01"},
            {"end": "2023-12-31", "val": 1000, "form": "10-K", "filed": "2024-02-01"}
          ]
        }
      },
      "EarningsPerShareBasic": {
        "label": "EPS",
        "units": {
          "USD/shares": [
            {"start": "2023-01-01", "end": "2023-03-31", "val": 1.25, "form": "10-Q", "filed": "2023-05-01"}
          ]
        }
      }
    }
  }
}`

func loadBatchRecord(t *testing.T) *edgar.CompanyFacts {
	t.Helper()
	rec, err := edgar.ParseCompanyFacts(strings.NewReader(batchRecord))
	require.NoError(t, err)
	return rec
}

func TestNormalizeAll(t *testing.T) {
	rec := loadBatchRecord(t)

	res, err := NormalizeAll(context.Background(), rec, norm, 4)
	require.NoError(t, err)

	// Revenues took the primary path, including Q4 inference.
	rev := res.Quarterly.Column("us-gaap:Revenues")
	assert.Equal(t, []float64{10, 20, 30, 40}, rev.Values())
	annualRev := res.Annual.Column("us-gaap:Revenues")
	assert.Equal(t, []float64{100}, annualRev.Values())

	// Assets is point-in-time: fallback path, all observations admitted.
	assets := res.Quarterly.Column("us-gaap:Assets")
	assert.Equal(t, []float64{900}, assets.Values())
	annualAssets := res.Annual.Column("us-gaap:Assets")
	assert.Equal(t, []float64{1000}, annualAssets.Values())

	// Fallback concepts are reported regardless of success.
	require.Len(t, res.Unresolved, 1)
	assert.Equal(t, "us-gaap:Assets", res.Unresolved[0].Concept)
	assert.Contains(t, res.Unresolved[0].Reason, "start date")

	// Unit kinds recorded per concept.
	assert.Equal(t, UnitCurrency, res.UnitKinds["us-gaap:Revenues"])
	assert.Equal(t, UnitPerShare, res.UnitKinds["us-gaap:EarningsPerShareBasic"])

	// Wide tables are the union of all dates, sorted, with absent
	// concept/date combinations simply missing.
	ends := res.Quarterly.Ends()
	for i := 1; i < len(ends); i++ {
		assert.True(t, ends[i-1].Before(ends[i]))
	}
	lastRow := res.Quarterly.Rows[len(res.Quarterly.Rows)-1]
	assert.Equal(t, d("2023-12-31"), lastRow.End)
	_, hasAssets := lastRow.Values["us-gaap:Assets"]
	assert.False(t, hasAssets)
	_, hasRev := lastRow.Values["us-gaap:Revenues"]
	assert.True(t, hasRev)
}

func TestNormalizeAll_Deterministic(t *testing.T) {
	rec := loadBatchRecord(t)

	a, err := NormalizeAll(context.Background(), rec, norm, 8)
	require.NoError(t, err)
	b, err := NormalizeAll(context.Background(), rec, norm, 1)
	require.NoError(t, err)

	assert.Equal(t, a.Quarterly, b.Quarterly)
	assert.Equal(t, a.Annual, b.Annual)
	assert.Equal(t, a.Unresolved, b.Unresolved)
}

func TestNormalizeAll_EmptyRecord(t *testing.T) {
	rec := &edgar.CompanyFacts{CIK: 1, EntityName: "Empty", Facts: map[string]edgar.FactNS{}}

	res, err := NormalizeAll(context.Background(), rec, norm, 4)
	require.NoError(t, err)
	assert.Empty(t, res.Quarterly.Concepts)
	assert.Empty(t, res.Annual.Concepts)
	assert.Empty(t, res.Unresolved)
}

func TestNormalizeAll_MalformedValuesSkipped(t *testing.T) {
	record := `{
	  "cik": 2,
	  "entityName": "Odd Corp",
	  "facts": {
	    "us-gaap": {
	      "Revenues": {
	        "label": "Revenues",
	        "units": {
	          "USD": [
	            {"start": "2023-01-01", "end": "not-a-date", "val": 10, "form": "10-Q", "filed": "2023-05-01"},
	            {"start": "2023-01-01", "end": "2023-03-31", "val": "abc", "form": "10-Q", "filed": "2023-05-01"}
	          ]
	        }
	      }
	    }
	  }
	}`
	rec, err := edgar.ParseCompanyFacts(strings.NewReader(record))
	require.NoError(t, err)

	res, err := NormalizeAll(context.Background(), rec, norm, 2)
	require.NoError(t, err)
	assert.Empty(t, res.Quarterly.Concepts)
	assert.Empty(t, res.Unresolved)
}

func TestDominantUnit(t *testing.T) {
	fact := edgar.Fact{Units: map[string][]edgar.FactValue{
		"USD": {{End: "2023-12-31"}, {End: "2022-12-31"}},
		"EUR": {{End: "2023-12-31"}},
	}}
	unit, values := dominantUnit(fact)
	assert.Equal(t, "USD", unit)
	assert.Len(t, values, 2)

	unit, _ = dominantUnit(edgar.Fact{Units: map[string][]edgar.FactValue{}})
	assert.Empty(t, unit)
}
