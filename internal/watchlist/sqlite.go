package watchlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"
)

const seededKey = "watchlist_seeded"

// SQLiteStore keeps the watchlist in the same database as the quote records.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the watchlist tables on db if needed.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS watched_symbols (
			symbol   TEXT PRIMARY KEY,
			added_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT
		)`,
	}
	for _, st := range stmts {
		if _, err := db.Exec(st); err != nil {
			return nil, fmt.Errorf("migrate watchlist: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Seed inserts defaults the first time the watchlist is initialized. Later
// calls are no-ops even if the user has since removed every symbol.
func (s *SQLiteStore) Seed(ctx context.Context, defaults []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed watchlist: %w", err)
	}
	defer tx.Rollback()

	var v string
	err = tx.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, seededKey).Scan(&v)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("seed watchlist: %w", err)
	}

	now := time.Now().UnixMilli()
	for _, d := range defaults {
		sym, err := Normalize(d)
		if err != nil {
			log.Printf("[WARN] skipping default symbol %q: %v", d, err)
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO watched_symbols (symbol, added_at) VALUES (?, ?)`, sym, now); err != nil {
			return fmt.Errorf("seed %s: %w", sym, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, seededKey, "1"); err != nil {
		return fmt.Errorf("seed watchlist: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed watchlist: %w", err)
	}
	log.Printf("[INFO] watchlist seeded with %d default symbols", len(defaults))
	return nil
}

func (s *SQLiteStore) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol FROM watched_symbols ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Add(ctx context.Context, symbol string) error {
	sym, err := Normalize(symbol)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO watched_symbols (symbol, added_at) VALUES (?, ?)`, sym, time.Now().UnixMilli())
	return err
}

func (s *SQLiteStore) Remove(ctx context.Context, symbol string) error {
	sym, err := Normalize(symbol)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM watched_symbols WHERE symbol = ?`, sym)
	return err
}
