package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/finquarry/finquarry/internal/edgar"
	"github.com/finquarry/finquarry/internal/facts"
	"github.com/finquarry/finquarry/internal/fetcher"
	"github.com/finquarry/finquarry/internal/market"
	"github.com/finquarry/finquarry/internal/store"
)

// researchEnv holds the clients the facts/chart/compare/serve commands share.
type researchEnv struct {
	EDGAR  *edgar.Client
	Market *market.Client
	Norm   facts.Normalizer
}

// initEnv builds the HTTP fetcher, file caches, and API clients from config.
func initEnv() (*researchEnv, error) {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.EDGAR.UserAgent,
		Timeout:    time.Duration(cfg.EDGAR.RequestTimeoutS) * time.Second,
		MaxRetries: cfg.EDGAR.RequestRetries,
	})

	edgarCache, err := fetcher.NewFileCache(cfg.EDGAR.CacheDir)
	if err != nil {
		return nil, eris.Wrap(err, "init edgar cache")
	}
	marketCache, err := fetcher.NewFileCache(cfg.Market.CacheDir)
	if err != nil {
		return nil, eris.Wrap(err, "init market cache")
	}

	return &researchEnv{
		EDGAR: edgar.NewClient(f, edgarCache, edgar.Options{
			TickerCacheTTL: time.Duration(cfg.EDGAR.TickerCacheDays) * 24 * time.Hour,
			FactsCacheTTL:  time.Duration(cfg.EDGAR.FactsCacheHours) * time.Hour,
		}),
		Market: market.NewClient(f, marketCache, market.Options{
			BaseURL:  cfg.Market.BaseURL,
			CacheTTL: time.Duration(cfg.Market.QuoteCacheMins) * time.Minute,
		}),
		Norm: facts.Normalizer{
			AnnualForm:  cfg.EDGAR.AnnualForm,
			QuarterForm: cfg.EDGAR.QuarterForm,
		},
	}, nil
}

// normalized is a full fetch-and-normalize result for one symbol.
type normalized struct {
	Symbol     string
	CIK        string
	EntityName string
	Result     *facts.BatchResult
}

// loadNormalized resolves the symbol to a CIK, fetches its company facts,
// and normalizes every concept.
func (e *researchEnv) loadNormalized(ctx context.Context, symbol string) (*normalized, error) {
	cik, err := e.EDGAR.CIKForSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}

	rec, err := e.EDGAR.CompanyFacts(ctx, cik, symbol)
	if err != nil {
		return nil, err
	}

	res, err := facts.NormalizeAll(ctx, rec, e.Norm, cfg.Normalize.MaxConcurrentConcepts)
	if err != nil {
		return nil, err
	}

	return &normalized{
		Symbol:     symbol,
		CIK:        cik,
		EntityName: rec.EntityName,
		Result:     res,
	}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	dsn := cfg.Store.DatabaseURL
	if cfg.Store.Driver != "postgres" && dsn == "" {
		dsn = cfg.Store.Path
	}
	return store.Open(ctx, cfg.Store.Driver, dsn)
}
