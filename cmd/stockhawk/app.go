package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"StockHawk/internal/collector"
	"StockHawk/internal/config"
	"StockHawk/internal/notifier"
	"StockHawk/internal/recorder"
	"StockHawk/internal/syncjob"
	"StockHawk/internal/watchlist"
)

// app holds the wired components shared by every subcommand.
type app struct {
	cfg      *config.Config
	db       *recorder.SQLiteStore // nil with --memory
	quotes   recorder.QuoteStore
	list     watchlist.Store
	telegram *notifier.TelegramNotifier // nil unless configured
	orch     *syncjob.Orchestrator
}

func newApp(ctx context.Context, cfgPath string, memory bool) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	a := &app{cfg: cfg}
	var runs recorder.RunRecorder
	if memory {
		mem := recorder.NewMemoryStore()
		a.quotes, runs = mem, mem
		a.list = watchlist.NewMemoryStore(cfg.Watchlist.DefaultSymbols...)
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		db, err := recorder.OpenSQLite(cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		list, err := watchlist.NewSQLiteStore(db.DB())
		if err != nil {
			db.Close()
			return nil, err
		}
		if err := list.Seed(ctx, cfg.Watchlist.DefaultSymbols); err != nil {
			db.Close()
			return nil, err
		}
		a.db, a.quotes, runs, a.list = db, db, db, list
	}

	var noticer notifier.Noticer = notifier.LogNoticer{}
	if cfg.TelegramEnabled() {
		a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Provider.Proxy)
		noticer = a.telegram
	}

	fetcher := newFetcher(cfg)
	log.Printf("[INFO] data source: %s", fetcher.Name())

	a.orch = syncjob.New(syncjob.Deps{
		Fetcher:      fetcher,
		Watchlist:    a.list,
		Quotes:       a.quotes,
		Runs:         runs,
		Events:       notifier.NewBroadcaster(),
		Noticer:      noticer,
		FetchTimeout: time.Duration(cfg.Provider.FetchTimeoutSec) * time.Second,
	})
	return a, nil
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	var f collector.Fetcher
	switch cfg.Provider.Name {
	case "mock":
		f = &collector.MockFetcher{}
	default:
		opts := []collector.YahooOption{collector.WithHistoryYears(cfg.Provider.HistoryYears)}
		if cfg.Provider.BaseURL != "" {
			opts = append(opts, collector.WithBaseURL(cfg.Provider.BaseURL))
		}
		timeout := time.Duration(cfg.Provider.FetchTimeoutSec) * time.Second
		f = collector.NewYahooFetcher(cfg.Provider.Proxy, timeout, opts...)
	}
	if cfg.Provider.MinIntervalSec > 0 {
		f = &collector.MinInterval{F: f, Interval: time.Duration(cfg.Provider.MinIntervalSec) * time.Second}
	}
	return f
}

func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Printf("[WARN] close store: %v", err)
		}
	}
}
