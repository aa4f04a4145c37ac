// Package watchlist owns the set of ticker symbols the sync job tracks.
package watchlist

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrInvalidSymbol is returned for symbols that cannot be a ticker.
var ErrInvalidSymbol = errors.New("invalid symbol")

// Store is a persistent set of watched symbols.
type Store interface {
	// Symbols returns the set sorted ascending.
	Symbols(ctx context.Context) ([]string, error)
	Add(ctx context.Context, symbol string) error
	Remove(ctx context.Context, symbol string) error
}

// Normalize trims and upper-cases a user supplied symbol.
func Normalize(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" || strings.ContainsAny(s, " \t\r\n,") {
		return "", ErrInvalidSymbol
	}
	return s, nil
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	symbols map[string]struct{}
}

// NewMemoryStore returns a store holding the given symbols.
func NewMemoryStore(symbols ...string) *MemoryStore {
	m := &MemoryStore{symbols: make(map[string]struct{}, len(symbols))}
	for _, s := range symbols {
		if n, err := Normalize(s); err == nil {
			m.symbols[n] = struct{}{}
		}
	}
	return m
}

func (m *MemoryStore) Symbols(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.symbols))
	for s := range m.symbols {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) Add(_ context.Context, symbol string) error {
	s, err := Normalize(symbol)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.symbols[s] = struct{}{}
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, symbol string) error {
	s, err := Normalize(symbol)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.symbols, s)
	return nil
}
