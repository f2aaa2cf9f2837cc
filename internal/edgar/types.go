// Package edgar loads company disclosure records from the SEC EDGAR APIs.
package edgar

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// CompanyFacts represents the EDGAR company facts JSON-LD structure:
// taxonomy namespace → concept → unit tag → observed values.
type CompanyFacts struct {
	CIK        int               `json:"cik"`
	EntityName string            `json:"entityName"`
	Facts      map[string]FactNS `json:"facts"`
}

// FactNS groups facts by namespace (e.g., "us-gaap", "dei").
type FactNS map[string]Fact

// Fact is a single disclosed concept with its units and values.
type Fact struct {
	Label       string                 `json:"label"`
	Description string                 `json:"description"`
	Units       map[string][]FactValue `json:"units"`
}

// FactValue is a single data point for a fact. Start is empty for
// point-in-time concepts (balance sheet items); flow concepts carry
// both Start and End.
type FactValue struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end"`
	Val   any    `json:"val"`
	Accn  string `json:"accn"`
	FY    int    `json:"fy"`
	FP    string `json:"fp"`
	Form  string `json:"form"`
	Filed string `json:"filed"`
	Frame string `json:"frame,omitempty"`
}

// ParseCompanyFacts parses EDGAR Company Facts JSON-LD from a reader.
func ParseCompanyFacts(r io.Reader) (*CompanyFacts, error) {
	var facts CompanyFacts
	if err := json.NewDecoder(r).Decode(&facts); err != nil {
		return nil, eris.Wrap(err, "edgar: parse company facts")
	}
	return &facts, nil
}

// Concepts returns the concept identifiers present in the record, namespace
// qualified (e.g., "us-gaap:Revenues"), in no particular order.
func (cf *CompanyFacts) Concepts() []string {
	var out []string
	for ns, nsMap := range cf.Facts {
		for name := range nsMap {
			out = append(out, ns+":"+name)
		}
	}
	return out
}
