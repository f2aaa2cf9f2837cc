package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/finquarry/finquarry/internal/facts"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// for tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store backed by a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects to the database named by dsn and tunes the pool.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse dsn")
	}
	cfg.MaxConns = 8
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id               TEXT PRIMARY KEY,
	symbol           TEXT NOT NULL,
	cik              TEXT NOT NULL,
	entity_name      TEXT NOT NULL,
	concept_count    INTEGER NOT NULL,
	unresolved_count INTEGER NOT NULL,
	result           JSONB NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_snapshots_symbol ON snapshots(symbol);
CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap Snapshot) (*Snapshot, error) {
	if snap.Result == nil {
		return nil, eris.New("postgres: snapshot has no result")
	}

	snap.ID = uuid.New().String()
	snap.CreatedAt = time.Now().UTC()

	resultJSON, err := json.Marshal(snap.Result)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal result")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO snapshots (id, symbol, cik, entity_name, concept_count, unresolved_count, result, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		snap.ID, snap.Symbol, snap.CIK, snap.EntityName,
		snap.ConceptCount, snap.UnresolvedCount, resultJSON, snap.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert snapshot")
	}

	return &snap, nil
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, symbol, cik, entity_name, concept_count, unresolved_count, result, created_at
		 FROM snapshots WHERE id = $1`, id)
	return scanPostgresSnapshot(row)
}

func (s *PostgresStore) LatestSnapshot(ctx context.Context, symbol string) (*Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, symbol, cik, entity_name, concept_count, unresolved_count, result, created_at
		 FROM snapshots WHERE symbol = $1 ORDER BY created_at DESC LIMIT 1`, symbol)
	return scanPostgresSnapshot(row)
}

func (s *PostgresStore) ListSnapshots(ctx context.Context, filter Filter) ([]Snapshot, error) {
	query := `SELECT id, symbol, cik, entity_name, concept_count, unresolved_count, created_at
	          FROM snapshots`
	var args []any
	if filter.Symbol != "" {
		query += ` WHERE symbol = $1`
		args = append(args, filter.Symbol)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		if filter.Symbol != "" {
			query += ` LIMIT $2`
		} else {
			query += ` LIMIT $1`
		}
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list snapshots")
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.Symbol, &snap.CIK, &snap.EntityName,
			&snap.ConceptCount, &snap.UnresolvedCount, &snap.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan snapshot")
		}
		out = append(out, snap)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate snapshots")
}

func scanPostgresSnapshot(row pgx.Row) (*Snapshot, error) {
	var (
		snap       Snapshot
		resultJSON []byte
	)
	err := row.Scan(&snap.ID, &snap.Symbol, &snap.CIK, &snap.EntityName,
		&snap.ConceptCount, &snap.UnresolvedCount, &resultJSON, &snap.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan snapshot")
	}

	var result facts.BatchResult
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal result")
	}
	snap.Result = &result
	return &snap, nil
}
