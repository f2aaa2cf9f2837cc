// Package market retrieves quote snapshots from a Yahoo-style market data
// provider. It is a thin collaborator: the normalization core never depends
// on it.
package market

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

// Quote is a point-in-time market snapshot for one symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Currency      string    `json:"currency"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	Change        float64   `json:"change"`
	ChangePct     float64   `json:"change_pct"`
	Time          time.Time `json:"time"`
}

// Options configures the market client.
type Options struct {
	BaseURL  string        // e.g. https://query1.finance.yahoo.com
	CacheTTL time.Duration // freshness window for cached quotes
}

// Client fetches quotes, caching each symbol's last payload on disk.
type Client struct {
	fetcher fetcher.Fetcher
	cache   *fetcher.FileCache
	opts    Options
}

// NewClient creates a market data client.
func NewClient(f fetcher.Fetcher, cache *fetcher.FileCache, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://query1.finance.yahoo.com"
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 15 * time.Minute
	}
	return &Client{fetcher: f, cache: cache, opts: opts}
}

// chartResponse mirrors the provider's chart endpoint envelope.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"chartPreviousClose"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// Quote returns the current quote for a symbol, served from cache when the
// last fetch is within the freshness window. A failed refresh falls back to
// a stale cached payload when one exists.
func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, eris.New("market: empty symbol")
	}

	name := symbol + ".quote.json"
	var data []byte
	if c.cache.Fresh(name, c.opts.CacheTTL) {
		cached, err := c.cache.Read(name)
		if err == nil {
			data = cached
		}
	}

	if data == nil {
		url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", c.opts.BaseURL, symbol)
		body, err := c.fetcher.Download(ctx, url)
		if err != nil {
			stale, readErr := c.cache.Read(name)
			if readErr != nil {
				return nil, eris.Wrapf(err, "market: fetch quote %s", symbol)
			}
			zap.L().Warn("market: refresh failed, serving stale quote",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			data = stale
		} else {
			data, err = io.ReadAll(body)
			body.Close()
			if err != nil {
				return nil, eris.Wrapf(err, "market: read quote %s", symbol)
			}
			if err := c.cache.Write(name, data); err != nil {
				zap.L().Warn("market: cache write failed", zap.String("symbol", symbol), zap.Error(err))
			}
		}
	}

	return parseQuote(symbol, data)
}

func parseQuote(symbol string, data []byte) (*Quote, error) {
	var resp chartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, eris.Wrapf(err, "market: parse quote %s", symbol)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, eris.Errorf("market: no result for %s", symbol)
	}

	meta := resp.Chart.Result[0].Meta
	q := &Quote{
		Symbol:        meta.Symbol,
		Currency:      meta.Currency,
		Price:         meta.RegularMarketPrice,
		PreviousClose: meta.PreviousClose,
		Time:          time.Unix(meta.RegularMarketTime, 0).UTC(),
	}
	if q.Symbol == "" {
		q.Symbol = symbol
	}
	q.Change = q.Price - q.PreviousClose
	if q.PreviousClose != 0 {
		q.ChangePct = q.Change / q.PreviousClose * 100
	}
	return q, nil
}
