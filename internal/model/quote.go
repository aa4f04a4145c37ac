package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoryPoint is one weekly close. Timestamp is in milliseconds since epoch.
type HistoryPoint struct {
	Timestamp int64
	Close     decimal.Decimal
}

// Time returns the point's timestamp as a time.Time.
func (p HistoryPoint) Time() time.Time {
	return time.UnixMilli(p.Timestamp)
}

// RawQuote is what a provider returns for a single symbol.
type RawQuote struct {
	Symbol        string
	Price         decimal.Decimal
	Change        decimal.Decimal
	PercentChange decimal.Decimal
	History       []HistoryPoint // unsorted, may be empty
}

// FetchResult carries either a quote or a per-symbol error.
type FetchResult struct {
	Quote *RawQuote
	Err   error
}

// QuoteRecord is the persisted row for one watched symbol.
type QuoteRecord struct {
	Symbol         string
	Price          decimal.Decimal
	AbsoluteChange decimal.Decimal
	PercentChange  decimal.Decimal
	// History is nil when the provider returned no points this cycle;
	// the store then keeps whatever history it already had.
	History   []HistoryPoint
	UpdatedAt time.Time
}

// NewQuoteRecord builds the record to upsert from a fetched quote.
func NewQuoteRecord(q *RawQuote, now time.Time) QuoteRecord {
	rec := QuoteRecord{
		Symbol:         q.Symbol,
		Price:          q.Price,
		AbsoluteChange: q.Change,
		PercentChange:  q.PercentChange,
		UpdatedAt:      now,
	}
	if len(q.History) > 0 {
		rec.History = append([]HistoryPoint(nil), q.History...)
	}
	return rec
}
