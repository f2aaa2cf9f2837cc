package edgar

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

// stubFetcher serves canned payloads by URL and counts calls.
type stubFetcher struct {
	payloads map[string]string
	calls    map[string]int
	fail     bool
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{payloads: map[string]string{}, calls: map[string]int{}}
}

func (s *stubFetcher) Download(_ context.Context, url string) (io.ReadCloser, error) {
	s.calls[url]++
	if s.fail {
		return nil, eris.New("stub: network down")
	}
	payload, ok := s.payloads[url]
	if !ok {
		return nil, eris.Errorf("stub: no payload for %s", url)
	}
	return io.NopCloser(strings.NewReader(payload)), nil
}

func (s *stubFetcher) DownloadToFile(_ context.Context, _ string, _ string) (int64, error) {
	return 0, eris.New("stub: not implemented")
}

const sampleTickers = `{
  "0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
  "1": {"cik_str": 789019, "ticker": "MSFT", "title": "MICROSOFT CORP"}
}`

const sampleFacts = `{
  "cik": 320193,
  "entityName": "Apple Inc.",
  "facts": {
    "us-gaap": {
      "Revenues": {
        "label": "Revenues",
        "description": "Total revenues",
        "units": {
          "USD": [
            {"start": "2023-01-01", "end": "2023-12-31", "val": 1000,
             "accn": "0000320193-24-000001", "fy": 2023, "fp": "FY",
             "form": "10-K", "filed": "2024-02-01"}
          ]
        }
      },
      "Assets": {
        "label": "Assets",
        "description": "Total assets",
        "units": {
          "USD": [
            {"end": "2023-12-31", "val": 352583000000,
             "accn": "0000320193-24-000001", "fy": 2023, "fp": "FY",
             "form": "10-K", "filed": "2024-02-01"}
          ]
        }
      }
    }
  }
}`

func newTestClient(t *testing.T, f fetcher.Fetcher) *Client {
	t.Helper()
	cache, err := fetcher.NewFileCache(t.TempDir())
	require.NoError(t, err)
	return NewClient(f, cache, Options{})
}

func TestCIKForSymbol(t *testing.T) {
	stub := newStubFetcher()
	stub.payloads[companyTickersURL] = sampleTickers
	c := newTestClient(t, stub)

	cik, err := c.CIKForSymbol(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "0000320193", cik)

	cik, err = c.CIKForSymbol(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "0000789019", cik)

	_, err = c.CIKForSymbol(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrSymbolNotFound)

	// Second lookup is served from cache: one download total.
	assert.Equal(t, 1, stub.calls[companyTickersURL])
}

func TestCIKForSymbol_EmptySymbol(t *testing.T) {
	c := newTestClient(t, newStubFetcher())
	_, err := c.CIKForSymbol(context.Background(), "  ")
	assert.Error(t, err)
}

func TestCompanyFacts(t *testing.T) {
	stub := newStubFetcher()
	url := "https://data.sec.gov/api/xbrl/companyfacts/CIK0000320193.json"
	stub.payloads[url] = sampleFacts
	c := newTestClient(t, stub)

	facts, err := c.CompanyFacts(context.Background(), "0000320193", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 320193, facts.CIK)
	assert.Equal(t, "Apple Inc.", facts.EntityName)
	assert.Contains(t, facts.Facts["us-gaap"], "Revenues")
	assert.Contains(t, facts.Facts["us-gaap"], "Assets")

	// Flow fact carries a start date, instant fact does not.
	rev := facts.Facts["us-gaap"]["Revenues"].Units["USD"][0]
	assert.Equal(t, "2023-01-01", rev.Start)
	assets := facts.Facts["us-gaap"]["Assets"].Units["USD"][0]
	assert.Empty(t, assets.Start)

	// Cached on disk: the next call does not re-download.
	_, err = c.CompanyFacts(context.Background(), "0000320193", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls[url])
}

func TestCompanyFacts_StaleFallback(t *testing.T) {
	stub := newStubFetcher()
	url := "https://data.sec.gov/api/xbrl/companyfacts/CIK0000320193.json"
	stub.payloads[url] = sampleFacts

	cache, err := fetcher.NewFileCache(t.TempDir())
	require.NoError(t, err)
	c := NewClient(stub, cache, Options{})

	_, err = c.CompanyFacts(context.Background(), "0000320193", "AAPL")
	require.NoError(t, err)

	// Expire the entry and kill the network: stale data is still served.
	old := time.Now().Add(-72 * time.Hour)
	require.NoError(t, os.Chtimes(cache.Path("AAPL.json"), old, old))
	stub.fail = true

	facts, err := c.CompanyFacts(context.Background(), "0000320193", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 320193, facts.CIK)
}

func TestParseCompanyFacts_Invalid(t *testing.T) {
	_, err := ParseCompanyFacts(strings.NewReader("not json"))
	assert.Error(t, err)
}

func TestConcepts(t *testing.T) {
	facts, err := ParseCompanyFacts(strings.NewReader(sampleFacts))
	require.NoError(t, err)

	concepts := facts.Concepts()
	assert.ElementsMatch(t, []string{"us-gaap:Revenues", "us-gaap:Assets"}, concepts)
}
