// Package store persists normalization snapshots so past runs can be
// listed and re-rendered without refetching or renormalizing.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/finquarry/finquarry/internal/facts"
)

// Snapshot is one recorded normalization run for a single issuer.
type Snapshot struct {
	ID              string             `json:"id"`
	Symbol          string             `json:"symbol"`
	CIK             string             `json:"cik"`
	EntityName      string             `json:"entity_name"`
	ConceptCount    int                `json:"concept_count"`
	UnresolvedCount int                `json:"unresolved_count"`
	Result          *facts.BatchResult `json:"result,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// Filter narrows ListSnapshots. Zero values match everything.
type Filter struct {
	Symbol string
	Limit  int
}

// Store defines snapshot persistence. Listing omits the (large) result
// payload; GetSnapshot loads it.
type Store interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) (*Snapshot, error)
	GetSnapshot(ctx context.Context, id string) (*Snapshot, error)
	LatestSnapshot(ctx context.Context, symbol string) (*Snapshot, error)
	ListSnapshots(ctx context.Context, filter Filter) ([]Snapshot, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs a Store for the configured driver and runs migrations.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case "sqlite", "":
		s, err = NewSQLite(dsn)
	case "postgres":
		s, err = NewPostgres(ctx, dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}
