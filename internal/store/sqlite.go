package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/finquarry/finquarry/internal/facts"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id               TEXT PRIMARY KEY,
	symbol           TEXT NOT NULL,
	cik              TEXT NOT NULL,
	entity_name      TEXT NOT NULL,
	concept_count    INTEGER NOT NULL,
	unresolved_count INTEGER NOT NULL,
	result           TEXT NOT NULL,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_snapshots_symbol ON snapshots(symbol);
CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap Snapshot) (*Snapshot, error) {
	if snap.Result == nil {
		return nil, eris.New("sqlite: snapshot has no result")
	}

	snap.ID = uuid.New().String()
	snap.CreatedAt = time.Now().UTC()

	resultJSON, err := json.Marshal(snap.Result)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, symbol, cik, entity_name, concept_count, unresolved_count, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Symbol, snap.CIK, snap.EntityName,
		snap.ConceptCount, snap.UnresolvedCount, string(resultJSON), snap.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert snapshot")
	}

	return &snap, nil
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, symbol, cik, entity_name, concept_count, unresolved_count, result, created_at
		 FROM snapshots WHERE id = ?`, id)
	return scanSQLiteSnapshot(row)
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context, symbol string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, symbol, cik, entity_name, concept_count, unresolved_count, result, created_at
		 FROM snapshots WHERE symbol = ? ORDER BY created_at DESC LIMIT 1`, symbol)
	return scanSQLiteSnapshot(row)
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context, filter Filter) ([]Snapshot, error) {
	query := `SELECT id, symbol, cik, entity_name, concept_count, unresolved_count, created_at
	          FROM snapshots`
	var args []any
	if filter.Symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, filter.Symbol)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list snapshots")
	}
	defer rows.Close() //nolint:errcheck

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.Symbol, &snap.CIK, &snap.EntityName,
			&snap.ConceptCount, &snap.UnresolvedCount, &snap.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot")
		}
		out = append(out, snap)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate snapshots")
}

// scanner abstracts sql.Row for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteSnapshot(row scanner) (*Snapshot, error) {
	var (
		snap       Snapshot
		resultJSON string
	)
	err := row.Scan(&snap.ID, &snap.Symbol, &snap.CIK, &snap.EntityName,
		&snap.ConceptCount, &snap.UnresolvedCount, &resultJSON, &snap.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan snapshot")
	}

	var result facts.BatchResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal result")
	}
	snap.Result = &result
	return &snap, nil
}
