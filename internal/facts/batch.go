package facts

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/finquarry/finquarry/internal/edgar"
)

// Unresolved records a concept that could not take the primary
// normalization path and the reason why.
type Unresolved struct {
	Concept string `json:"concept"`
	Reason  string `json:"reason"`
}

// BatchResult aggregates every concept of a filing record into wide
// quarterly and annual tables, plus the concepts that needed the
// no-span fallback.
type BatchResult struct {
	Quarterly  WideTable           `json:"quarterly"`
	Annual     WideTable           `json:"annual"`
	Unresolved []Unresolved        `json:"unresolved"`
	UnitKinds  map[string]UnitKind `json:"unit_kinds"`
}

// NormalizeAll applies the normalizer to every concept in the record.
// Concepts are independent, so they are normalized in parallel up to the
// given concurrency limit; results merge by concept id. A concept that
// fails the primary path is retried on the fallback and listed as
// unresolved either way — a single concept never aborts the batch.
func NormalizeAll(ctx context.Context, rec *edgar.CompanyFacts, n Normalizer, concurrency int) (*BatchResult, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	type conceptResult struct {
		concept    string
		quarterly  Series
		annual     Series
		kind       UnitKind
		unresolved *Unresolved
	}

	var (
		mu      sync.Mutex
		results []conceptResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for ns, nsMap := range rec.Facts {
		for name, fact := range nsMap {
			concept := ns + ":" + name
			unit, values := dominantUnit(fact)
			if unit == "" {
				continue
			}

			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}

				obs := FromFact(concept, unit, values)
				if len(obs) == 0 {
					// Concept exists but every value was malformed:
					// empty result, not a failure.
					return nil
				}

				res := conceptResult{concept: concept, kind: DetectUnitKind(unit)}
				q, a, err := n.Normalize(obs)
				if err != nil {
					res.quarterly, res.annual = n.NormalizeNoSpan(obs)
					res.unresolved = &Unresolved{Concept: concept, Reason: err.Error()}
					zap.L().Debug("facts: concept took fallback path",
						zap.String("concept", concept),
						zap.Error(err),
					)
				} else {
					res.quarterly, res.annual = q, a
				}

				mu.Lock()
				results = append(results, res)
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	quarterly := make(map[string]Series, len(results))
	annual := make(map[string]Series, len(results))
	kinds := make(map[string]UnitKind, len(results))
	var unresolved []Unresolved
	for _, r := range results {
		if len(r.quarterly) > 0 {
			quarterly[r.concept] = r.quarterly
		}
		if len(r.annual) > 0 {
			annual[r.concept] = r.annual
		}
		kinds[r.concept] = r.kind
		if r.unresolved != nil {
			unresolved = append(unresolved, *r.unresolved)
		}
	}
	sort.Slice(unresolved, func(i, j int) bool { return unresolved[i].Concept < unresolved[j].Concept })

	return &BatchResult{
		Quarterly:  BuildWideTable(quarterly),
		Annual:     BuildWideTable(annual),
		Unresolved: unresolved,
		UnitKinds:  kinds,
	}, nil
}

// dominantUnit picks the unit tag holding the most observations. Units are
// homogeneous per concept in practice; the handful of dual-currency filers
// resolve deterministically by count, then name.
func dominantUnit(fact edgar.Fact) (string, []edgar.FactValue) {
	var (
		bestUnit string
		bestVals []edgar.FactValue
	)
	for unit, values := range fact.Units {
		if len(values) > len(bestVals) ||
			(len(values) == len(bestVals) && (bestUnit == "" || unit < bestUnit)) {
			bestUnit, bestVals = unit, values
		}
	}
	return bestUnit, bestVals
}
