// Package portfolio loads a YAML position file and enriches each position
// with live market data.
package portfolio

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/finquarry/finquarry/internal/market"
)

// Position is one holding as declared in the portfolio file.
type Position struct {
	Symbol    string  `yaml:"symbol"`
	Shares    float64 `yaml:"shares"`
	CostBasis float64 `yaml:"cost_basis"` // total acquisition cost
}

// File is the on-disk portfolio format.
type File struct {
	Name      string     `yaml:"name"`
	Positions []Position `yaml:"positions"`
}

// Holding is a position enriched with market data.
type Holding struct {
	Position
	Quote          *market.Quote `json:"quote,omitempty"`
	MarketValue    float64       `json:"market_value"`
	UnrealizedGain float64       `json:"unrealized_gain"`
	Err            string        `json:"error,omitempty"`
}

// Load reads and validates a portfolio file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "portfolio: read %s", path)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "portfolio: parse %s", path)
	}

	if len(f.Positions) == 0 {
		return nil, eris.Errorf("portfolio: %s has no positions", path)
	}
	for i, p := range f.Positions {
		if p.Symbol == "" {
			return nil, eris.Errorf("portfolio: position %d has no symbol", i)
		}
		if p.Shares <= 0 {
			return nil, eris.Errorf("portfolio: position %s has non-positive shares", p.Symbol)
		}
	}

	return &f, nil
}

// Quoter is the slice of the market client the enricher needs.
type Quoter interface {
	Quote(ctx context.Context, symbol string) (*market.Quote, error)
}

// Enrich fetches a quote per position concurrently and computes market
// value and unrealized gain. A failed quote is recorded on the holding;
// it never aborts the rest of the batch.
func Enrich(ctx context.Context, q Quoter, positions []Position, concurrency int) []Holding {
	if concurrency < 1 {
		concurrency = 1
	}

	holdings := make([]Holding, len(positions))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, p := range positions {
		g.Go(func() error {
			h := Holding{Position: p}
			quote, err := q.Quote(gctx, p.Symbol)
			if err != nil {
				h.Err = err.Error()
				zap.L().Warn("portfolio: quote failed",
					zap.String("symbol", p.Symbol),
					zap.Error(err),
				)
			} else {
				h.Quote = quote
				h.MarketValue = quote.Price * p.Shares
				h.UnrealizedGain = h.MarketValue - p.CostBasis
			}
			mu.Lock()
			holdings[i] = h
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait() // workers never return errors; failures live on holdings

	sort.SliceStable(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })
	return holdings
}

// TotalValue sums the market value of successfully quoted holdings.
func TotalValue(holdings []Holding) float64 {
	var total float64
	for _, h := range holdings {
		total += h.MarketValue
	}
	return total
}
