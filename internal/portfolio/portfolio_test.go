package portfolio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finquarry/finquarry/internal/market"
)

func writePortfolio(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portfolio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writePortfolio(t, `
name: research
positions:
  - symbol: AAPL
    shares: 10
    cost_basis: 1500
  - symbol: MSFT
    shares: 5
    cost_basis: 1200
`)

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "research", f.Name)
	require.Len(t, f.Positions, 2)
	assert.Equal(t, "AAPL", f.Positions[0].Symbol)
	assert.Equal(t, float64(10), f.Positions[0].Shares)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"no positions": `name: empty`,
		"no symbol":    "positions:\n  - shares: 10\n",
		"zero shares":  "positions:\n  - symbol: AAPL\n    shares: 0\n",
		"bad yaml":     `{{{`,
	}
	for name, content := range cases {
		_, err := Load(writePortfolio(t, content))
		assert.Error(t, err, name)
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

type stubQuoter struct {
	prices map[string]float64
}

func (s *stubQuoter) Quote(_ context.Context, symbol string) (*market.Quote, error) {
	price, ok := s.prices[symbol]
	if !ok {
		return nil, eris.Errorf("stub: no quote for %s", symbol)
	}
	return &market.Quote{Symbol: symbol, Currency: "USD", Price: price}, nil
}

func TestEnrich(t *testing.T) {
	q := &stubQuoter{prices: map[string]float64{"AAPL": 200, "MSFT": 400}}
	positions := []Position{
		{Symbol: "MSFT", Shares: 5, CostBasis: 1200},
		{Symbol: "AAPL", Shares: 10, CostBasis: 1500},
		{Symbol: "FAIL", Shares: 1, CostBasis: 100},
	}

	holdings := Enrich(context.Background(), q, positions, 4)
	require.Len(t, holdings, 3)

	// Sorted by symbol.
	assert.Equal(t, "AAPL", holdings[0].Symbol)
	assert.Equal(t, "FAIL", holdings[1].Symbol)
	assert.Equal(t, "MSFT", holdings[2].Symbol)

	assert.Equal(t, float64(2000), holdings[0].MarketValue)
	assert.Equal(t, float64(500), holdings[0].UnrealizedGain)
	assert.Equal(t, float64(2000), holdings[2].MarketValue)
	assert.Equal(t, float64(800), holdings[2].UnrealizedGain)

	// Failed quote is isolated to its holding.
	assert.NotEmpty(t, holdings[1].Err)
	assert.Nil(t, holdings[1].Quote)
	assert.Zero(t, holdings[1].MarketValue)

	assert.Equal(t, float64(4000), TotalValue(holdings))
}
