package recorder

import (
	"context"
	"errors"

	"StockHawk/internal/model"
)

// ErrNotFound is returned by Get when no record exists for the symbol.
var ErrNotFound = errors.New("quote record not found")

// QuoteStore persists one QuoteRecord per watched symbol.
type QuoteStore interface {
	// BulkUpsert writes all records or none. A record with nil History
	// keeps the history already stored for that symbol.
	BulkUpsert(ctx context.Context, records []model.QuoteRecord) error
	Delete(ctx context.Context, symbol string) error
	DeleteAll(ctx context.Context) error
	Get(ctx context.Context, symbol string) (*model.QuoteRecord, error)
	// List returns all records ordered by symbol.
	List(ctx context.Context) ([]model.QuoteRecord, error)
}

// RunRecorder keeps an audit trail of sync cycles.
type RunRecorder interface {
	RecordSyncRun(ctx context.Context, run *model.SyncRun) error
}
