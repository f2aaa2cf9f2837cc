package market

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finquarry/finquarry/internal/fetcher"
)

type stubFetcher struct {
	payload string
	calls   int
	fail    bool
}

func (s *stubFetcher) Download(_ context.Context, _ string) (io.ReadCloser, error) {
	s.calls++
	if s.fail {
		return nil, eris.New("stub: network down")
	}
	return io.NopCloser(strings.NewReader(s.payload)), nil
}

func (s *stubFetcher) DownloadToFile(_ context.Context, _ string, _ string) (int64, error) {
	return 0, eris.New("stub: not implemented")
}

const sampleChart = `{
  "chart": {
    "result": [
      {
        "meta": {
          "currency": "USD",
          "symbol": "AAPL",
          "regularMarketPrice": 210.50,
          "chartPreviousClose": 200.00,
          "regularMarketTime": 1724659200
        }
      }
    ],
    "error": null
  }
}`

func newTestClient(t *testing.T, f fetcher.Fetcher) *Client {
	t.Helper()
	cache, err := fetcher.NewFileCache(t.TempDir())
	require.NoError(t, err)
	return NewClient(f, cache, Options{})
}

func TestQuote(t *testing.T) {
	stub := &stubFetcher{payload: sampleChart}
	c := newTestClient(t, stub)

	q, err := c.Quote(context.Background(), "aapl")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, "USD", q.Currency)
	assert.Equal(t, 210.50, q.Price)
	assert.Equal(t, 200.00, q.PreviousClose)
	assert.InDelta(t, 10.50, q.Change, 1e-9)
	assert.InDelta(t, 5.25, q.ChangePct, 1e-9)
	assert.Equal(t, time.Unix(1724659200, 0).UTC(), q.Time)
}

func TestQuote_ServedFromCache(t *testing.T) {
	stub := &stubFetcher{payload: sampleChart}
	c := newTestClient(t, stub)

	_, err := c.Quote(context.Background(), "AAPL")
	require.NoError(t, err)

	// Kill the network: the cached payload still satisfies the call.
	stub.fail = true
	q, err := c.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 210.50, q.Price)
	assert.Equal(t, 1, stub.calls)
}

func TestQuote_StaleFallbackOnFetchFailure(t *testing.T) {
	stub := &stubFetcher{payload: sampleChart}
	cache, err := fetcher.NewFileCache(t.TempDir())
	require.NoError(t, err)
	c := NewClient(stub, cache, Options{})

	_, err = c.Quote(context.Background(), "AAPL")
	require.NoError(t, err)

	// Age the entry past the freshness window, then kill the network:
	// the stale payload is served rather than an error.
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(cache.Path("AAPL.quote.json"), old, old))
	stub.fail = true

	q, err := c.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 210.50, q.Price)
	assert.Equal(t, 2, stub.calls)
}

func TestQuote_NoCacheNoNetwork(t *testing.T) {
	stub := &stubFetcher{fail: true}
	c := newTestClient(t, stub)

	_, err := c.Quote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch quote")
}

func TestQuote_EmptyResult(t *testing.T) {
	stub := &stubFetcher{payload: `{"chart":{"result":[],"error":"Not Found"}}`}
	c := newTestClient(t, stub)

	_, err := c.Quote(context.Background(), "NOPE")
	assert.Error(t, err)
}

func TestQuote_EmptySymbol(t *testing.T) {
	c := newTestClient(t, &stubFetcher{})
	_, err := c.Quote(context.Background(), "  ")
	assert.Error(t, err)
}

func TestParseQuote_Invalid(t *testing.T) {
	_, err := parseQuote("AAPL", []byte("not json"))
	assert.Error(t, err)
}
