package collector

import (
	"context"
	"sync"
	"time"

	"StockHawk/internal/model"
)

// MinInterval wraps a Fetcher and enforces a minimum time between calls.
// A call waits until Interval has elapsed since the last one, or returns a
// *NetworkError if the context ends first.
type MinInterval struct {
	F        Fetcher
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func (m *MinInterval) Name() string { return m.F.Name() }

func (m *MinInterval) FetchQuotes(ctx context.Context, symbols []string) (map[string]model.FetchResult, error) {
	if m.Interval > 0 && len(symbols) > 0 {
		m.mu.Lock()
		wait := time.Until(m.last.Add(m.Interval))
		m.mu.Unlock()
		if wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return nil, networkErr("rate limit", ctx.Err())
			case <-t.C:
			}
		}
	}
	res, err := m.F.FetchQuotes(ctx, symbols)
	if m.Interval > 0 && len(symbols) > 0 {
		m.mu.Lock()
		m.last = time.Now()
		m.mu.Unlock()
	}
	return res, err
}
