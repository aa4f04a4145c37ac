package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"StockHawk/internal/history"
	"StockHawk/internal/model"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists quote records and sync runs to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSQLite opens (or creates) the SQLite database and runs migrations.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	// busy_timeout goes in the DSN so every pooled connection gets it.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so readers (CLI list, detail) never block the sync writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

// DB exposes the handle so the watchlist can share the same file.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS quotes (
			symbol          TEXT PRIMARY KEY,
			price           TEXT NOT NULL,
			absolute_change TEXT NOT NULL,
			percent_change  TEXT NOT NULL,
			history         TEXT,
			updated_at      INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS sync_runs (
			cycle_id    TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			outcome     TEXT NOT NULL,
			failure     TEXT,
			count       INTEGER,
			reason      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs(started_at)`,
	}

	for _, st := range stmts {
		if _, err := s.db.Exec(st); err != nil {
			return fmt.Errorf("exec %q: %w", st[:40], err)
		}
	}
	return nil
}

const upsertQuote = `INSERT INTO quotes
	(symbol, price, absolute_change, percent_change, history, updated_at)
	VALUES (?,?,?,?,?,?)
	ON CONFLICT(symbol) DO UPDATE SET
		price           = excluded.price,
		absolute_change = excluded.absolute_change,
		percent_change  = excluded.percent_change,
		history         = COALESCE(excluded.history, quotes.history),
		updated_at      = excluded.updated_at`

func (s *SQLiteStore) BulkUpsert(ctx context.Context, records []model.QuoteRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, upsertQuote)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		var hist sql.NullString
		if len(r.History) > 0 {
			hist = sql.NullString{String: history.Encode(r.History), Valid: true}
		}
		updated := r.UpdatedAt
		if updated.IsZero() {
			updated = time.Now()
		}
		if _, err = stmt.ExecContext(ctx,
			r.Symbol, r.Price.String(), r.AbsoluteChange.String(), r.PercentChange.String(),
			hist, updated.UnixMilli(),
		); err != nil {
			return fmt.Errorf("upsert %s: %w", r.Symbol, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM quotes WHERE symbol = ?`, symbol)
	return err
}

func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM quotes`)
	return err
}

const selectQuote = `SELECT symbol, price, absolute_change, percent_change, history, updated_at FROM quotes`

func (s *SQLiteStore) Get(ctx context.Context, symbol string) (*model.QuoteRecord, error) {
	row := s.db.QueryRowContext(ctx, selectQuote+` WHERE symbol = ?`, symbol)
	r, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.QuoteRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectQuote+` ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	var out []model.QuoteRecord
	for rows.Next() {
		r, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuote(sc scanner) (*model.QuoteRecord, error) {
	var (
		r                  model.QuoteRecord
		price, change, pct string
		hist               sql.NullString
		updated            int64
	)
	if err := sc.Scan(&r.Symbol, &price, &change, &pct, &hist, &updated); err != nil {
		return nil, err
	}
	var err error
	if r.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("quote %s price: %w", r.Symbol, err)
	}
	if r.AbsoluteChange, err = decimal.NewFromString(change); err != nil {
		return nil, fmt.Errorf("quote %s change: %w", r.Symbol, err)
	}
	if r.PercentChange, err = decimal.NewFromString(pct); err != nil {
		return nil, fmt.Errorf("quote %s percent change: %w", r.Symbol, err)
	}
	if hist.Valid {
		if r.History, err = history.Decode(hist.String); err != nil {
			return nil, fmt.Errorf("quote %s: %w", r.Symbol, err)
		}
	}
	r.UpdatedAt = time.UnixMilli(updated)
	return &r, nil
}

func (s *SQLiteStore) RecordSyncRun(ctx context.Context, run *model.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO sync_runs
		(cycle_id, started_at, finished_at, outcome, failure, count, reason)
		VALUES (?,?,?,?,?,?,?)`,
		run.CycleID, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(),
		string(run.Outcome), string(run.Failure), run.Count, run.Reason,
	)
	return err
}

// RecentRuns returns the latest sync runs, newest first.
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]model.SyncRun, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT cycle_id, started_at, finished_at, outcome, failure, count, reason
		FROM sync_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var out []model.SyncRun
	for rows.Next() {
		var (
			run              model.SyncRun
			started, finish  int64
			outcome, failure string
		)
		if err := rows.Scan(&run.CycleID, &started, &finish, &outcome, &failure, &run.Count, &run.Reason); err != nil {
			return nil, err
		}
		run.StartedAt = time.UnixMilli(started)
		run.FinishedAt = time.UnixMilli(finish)
		run.Outcome = model.OutcomeKind(outcome)
		run.Failure = model.FailureKind(failure)
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}
