package collector

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"StockHawk/internal/model"

	"github.com/shopspring/decimal"
)

// MockFetcher returns controllable fixed data for development and testing.
//
// When Quotes is nil every requested symbol gets a generated quote, except
// those listed in Unknown. When Quotes is set, only its symbols resolve.
type MockFetcher struct {
	Quotes  map[string]model.RawQuote
	Unknown map[string]bool
	Err     error // returned for the whole batch, wrapped as *NetworkError

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls returns how many times FetchQuotes reached the provider.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockFetcher) FetchQuotes(ctx context.Context, symbols []string) (map[string]model.FetchResult, error) {
	out := make(map[string]model.FetchResult, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, networkErr("mock", err)
	}
	if m.Err != nil {
		return nil, networkErr("mock", m.Err)
	}

	for _, s := range symbols {
		if m.Unknown[s] {
			out[s] = model.FetchResult{Err: &InvalidSymbolError{Symbol: s}}
			continue
		}
		if m.Quotes != nil {
			q, ok := m.Quotes[s]
			if !ok {
				out[s] = model.FetchResult{Err: &InvalidSymbolError{Symbol: s}}
				continue
			}
			q.Symbol = s
			q.History = append([]model.HistoryPoint(nil), q.History...)
			out[s] = model.FetchResult{Quote: &q}
			continue
		}
		q := generateMockQuote(s, 104)
		out[s] = model.FetchResult{Quote: &q}
	}
	return out, nil
}

// generateMockQuote derives a stable quote from the symbol so repeated
// cycles produce identical data.
func generateMockQuote(symbol string, weeks int) model.RawQuote {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	base := decimal.NewFromInt(int64(50 + h.Sum32()%450))

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]model.HistoryPoint, weeks)
	for i := 0; i < weeks; i++ {
		step := decimal.NewFromInt(int64(i - weeks/2)).Mul(decimal.RequireFromString("0.001"))
		points[i] = model.HistoryPoint{
			Timestamp: start.AddDate(0, 0, 7*i).UnixMilli(),
			Close:     base.Mul(decimal.NewFromInt(1).Add(step)).Round(2),
		}
	}
	prev := points[weeks-2].Close
	last := points[weeks-1].Close
	change := last.Sub(prev)
	return model.RawQuote{
		Symbol:        symbol,
		Price:         last,
		Change:        change,
		PercentChange: change.Div(prev).Mul(decimal.NewFromInt(100)).Round(2),
		History:       points,
	}
}
