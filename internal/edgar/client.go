package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/finquarry/finquarry/internal/fetcher"
)

const (
	tickerCacheName = "company_tickers.json"

	companyTickersURL = "https://www.sec.gov/files/company_tickers.json"
	companyFactsURL   = "https://data.sec.gov/api/xbrl/companyfacts/CIK%s.json"
)

// ErrSymbolNotFound is returned when the ticker file has no entry for a symbol.
var ErrSymbolNotFound = eris.New("edgar: symbol not found")

// Options configures the EDGAR client.
type Options struct {
	TickerCacheTTL time.Duration // freshness window for company_tickers.json
	FactsCacheTTL  time.Duration // freshness window for per-symbol facts files
}

// Client retrieves ticker mappings and company facts, caching each payload
// on disk. Staleness is judged by file age; a stale entry is re-fetched and
// rewritten in place.
type Client struct {
	fetcher fetcher.Fetcher
	cache   *fetcher.FileCache
	opts    Options
}

// NewClient creates an EDGAR client backed by the given fetcher and cache.
func NewClient(f fetcher.Fetcher, cache *fetcher.FileCache, opts Options) *Client {
	if opts.TickerCacheTTL == 0 {
		opts.TickerCacheTTL = 30 * 24 * time.Hour
	}
	if opts.FactsCacheTTL == 0 {
		opts.FactsCacheTTL = 24 * time.Hour
	}
	return &Client{fetcher: f, cache: cache, opts: opts}
}

// tickerEntry is one row of company_tickers.json, which is keyed by
// arbitrary array indices rather than symbols.
type tickerEntry struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// CIKForSymbol resolves a ticker symbol to its zero-padded 10-digit CIK.
func (c *Client) CIKForSymbol(ctx context.Context, symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", eris.New("edgar: empty symbol")
	}

	data, err := c.cachedDownload(ctx, tickerCacheName, companyTickersURL, c.opts.TickerCacheTTL)
	if err != nil {
		return "", err
	}

	var entries map[string]tickerEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return "", eris.Wrap(err, "edgar: parse company tickers")
	}

	for _, e := range entries {
		if strings.ToUpper(e.Ticker) == symbol {
			return fmt.Sprintf("%010d", e.CIK), nil
		}
	}

	return "", eris.Wrapf(ErrSymbolNotFound, "symbol %s", symbol)
}

// CompanyFacts fetches the full company facts record for a CIK. The payload
// is cached per symbol so repeated runs within the freshness window never
// touch the network.
func (c *Client) CompanyFacts(ctx context.Context, cik, symbol string) (*CompanyFacts, error) {
	name := strings.ToUpper(strings.TrimSpace(symbol)) + ".json"
	url := fmt.Sprintf(companyFactsURL, cik)

	data, err := c.cachedDownload(ctx, name, url, c.opts.FactsCacheTTL)
	if err != nil {
		return nil, err
	}

	facts, err := ParseCompanyFacts(strings.NewReader(string(data)))
	if err != nil {
		return nil, err
	}
	return facts, nil
}

// cachedDownload returns the cached payload when fresh, otherwise downloads
// and rewrites the cache entry. A failed refresh falls back to a stale cache
// entry when one exists.
func (c *Client) cachedDownload(ctx context.Context, name, url string, ttl time.Duration) ([]byte, error) {
	if c.cache.Fresh(name, ttl) {
		return c.cache.Read(name)
	}

	body, err := c.fetcher.Download(ctx, url)
	if err != nil {
		if stale, readErr := c.cache.Read(name); readErr == nil {
			zap.L().Warn("edgar: refresh failed, serving stale cache",
				zap.String("entry", name),
				zap.Error(err),
			)
			return stale, nil
		}
		return nil, eris.Wrapf(err, "edgar: fetch %s", url)
	}
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, eris.Wrapf(err, "edgar: read %s", url)
	}

	if err := c.cache.Write(name, data); err != nil {
		// Cache write failure is not fatal; the payload is still usable.
		zap.L().Warn("edgar: cache write failed", zap.String("entry", name), zap.Error(err))
	}

	return data, nil
}
