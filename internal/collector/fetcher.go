package collector

import (
	"context"
	"errors"
	"fmt"

	"StockHawk/internal/model"
)

// Fetcher retrieves quotes and weekly history for a batch of symbols.
//
// A non-nil error means the whole batch failed and is always a *NetworkError.
// Per-symbol problems are reported in the result map instead.
//
//go:generate mockgen -package=syncjob_test -destination=../syncjob/mock_fetcher_test.go -source=fetcher.go Fetcher
type Fetcher interface {
	FetchQuotes(ctx context.Context, symbols []string) (map[string]model.FetchResult, error)
	Name() string
}

// NetworkError is a transient failure of the whole batch: connectivity,
// a bad HTTP response, an undecodable body or a timeout.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// InvalidSymbolError means the provider has no data for Symbol.
type InvalidSymbolError struct {
	Symbol string
}

func (e *InvalidSymbolError) Error() string { return "symbol not found: " + e.Symbol }

// IsNetwork reports whether err is a batch-level transient failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// InvalidSymbol extracts the offending symbol from err, if any.
func InvalidSymbol(err error) (string, bool) {
	var ie *InvalidSymbolError
	if errors.As(err, &ie) {
		return ie.Symbol, true
	}
	return "", false
}

func networkErr(op string, err error) error {
	return &NetworkError{Op: op, Err: err}
}
