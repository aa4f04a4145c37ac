package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"StockHawk/internal/collector"
	"StockHawk/internal/config"
	"StockHawk/internal/model"

	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, provider string) string {
	t.Helper()
	for _, k := range []string{"STOCKHAWK_PROVIDER", "DEFAULT_SYMBOLS", "SQLITE_PATH", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`
provider:
  name: %s
watchlist:
  default_symbols: [aapl, MSFT]
database:
  sqlite_path: %s
`, provider, filepath.Join(dir, "data", "stockhawk.db"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNewApp_MemorySync(t *testing.T) {
	ctx := context.Background()
	a, err := newApp(ctx, testConfig(t, "mock"), true)
	require.NoError(t, err)
	defer a.Close()
	require.Nil(t, a.db)
	require.Nil(t, a.telegram)

	out := a.orch.RunSyncCycle(ctx)
	require.Equal(t, model.OutcomeUpdated, out.Kind)
	require.Equal(t, 2, out.Count)

	recs, err := a.quotes.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "AAPL", recs[0].Symbol)
	require.NotEmpty(t, recs[0].History)
}

func TestNewApp_SQLiteSeedsOnce(t *testing.T) {
	ctx := context.Background()
	path := testConfig(t, "mock")

	a, err := newApp(ctx, path, false)
	require.NoError(t, err)
	syms, err := a.list.Symbols(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"AAPL", "MSFT"}, syms)

	require.True(t, a.orch.RunSyncCycle(ctx).OK())
	for _, s := range syms {
		_, err := a.orch.Untrack(ctx, s)
		require.NoError(t, err)
	}
	runs, err := a.db.RecentRuns(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	a.Close()

	a, err = newApp(ctx, path, false)
	require.NoError(t, err)
	defer a.Close()
	syms, err = a.list.Symbols(ctx)
	require.NoError(t, err)
	require.Empty(t, syms)
}

func TestNewApp_InvalidConfig(t *testing.T) {
	_, err := newApp(context.Background(), testConfig(t, "bloomberg"), true)
	require.ErrorContains(t, err, "config validation")
}

func TestNewFetcher(t *testing.T) {
	cfg, err := config.Load(testConfig(t, "yahoo"))
	require.NoError(t, err)

	_, ok := newFetcher(cfg).(*collector.YahooFetcher)
	require.True(t, ok)

	cfg.Provider.MinIntervalSec = 2
	f := newFetcher(cfg)
	_, ok = f.(*collector.MinInterval)
	require.True(t, ok)
	require.Equal(t, "yahoo", f.Name())

	cfg.Provider.Name = "mock"
	cfg.Provider.MinIntervalSec = 0
	require.Equal(t, "mock", newFetcher(cfg).Name())
}
