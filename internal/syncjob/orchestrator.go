// Package syncjob runs quote sync cycles: fetch every watched symbol, store
// the results, drop symbols the provider does not know, and signal consumers.
package syncjob

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"StockHawk/internal/collector"
	"StockHawk/internal/model"
	"StockHawk/internal/notifier"
	"StockHawk/internal/recorder"
	"StockHawk/internal/watchlist"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// User-facing notices. Raw errors only go to the log.
const (
	NoticeNetwork    = "Could not reach the quote server. Will retry shortly."
	NoticeStoreWrite = "Could not save the latest quotes."
	NoticeStoreRead  = "Could not read the watchlist."
	noticeNotFound   = "symbol not found: "
)

// DefaultFetchTimeout bounds one provider call.
const DefaultFetchTimeout = 30 * time.Second

// Deps are the collaborators of an Orchestrator. Runs and Noticer are optional.
type Deps struct {
	Fetcher      collector.Fetcher
	Watchlist    watchlist.Store
	Quotes       recorder.QuoteStore
	Runs         recorder.RunRecorder
	Events       *notifier.Broadcaster
	Noticer      notifier.Noticer
	FetchTimeout time.Duration
}

// Orchestrator owns the sync cycle and every watchlist mutation. Cycles and
// Track/Untrack never interleave.
type Orchestrator struct {
	fetcher      collector.Fetcher
	watchlist    watchlist.Store
	quotes       recorder.QuoteStore
	runs         recorder.RunRecorder
	events       *notifier.Broadcaster
	noticer      notifier.Noticer
	fetchTimeout time.Duration
	now          func() time.Time

	mu    sync.Mutex
	group singleflight.Group
}

func New(d Deps) *Orchestrator {
	o := &Orchestrator{
		fetcher:      d.Fetcher,
		watchlist:    d.Watchlist,
		quotes:       d.Quotes,
		runs:         d.Runs,
		events:       d.Events,
		noticer:      d.Noticer,
		fetchTimeout: d.FetchTimeout,
		now:          time.Now,
	}
	if o.events == nil {
		o.events = notifier.NewBroadcaster()
	}
	if o.noticer == nil {
		o.noticer = notifier.LogNoticer{}
	}
	if o.fetchTimeout <= 0 {
		o.fetchTimeout = DefaultFetchTimeout
	}
	return o
}

// Events returns the broadcaster DataUpdated is published on.
func (o *Orchestrator) Events() *notifier.Broadcaster { return o.events }

// RunSyncCycle runs one cycle. A call made while a cycle is in flight waits
// for it and returns the same outcome instead of starting another.
func (o *Orchestrator) RunSyncCycle(ctx context.Context) model.Outcome {
	v, _, shared := o.group.Do("sync", func() (any, error) {
		return o.runCycle(ctx), nil
	})
	out := v.(model.Outcome)
	if shared {
		log.Printf("[INFO] sync %s: joined in-flight cycle", out.CycleID)
	}
	return out
}

func (o *Orchestrator) runCycle(ctx context.Context) model.Outcome {
	id := uuid.NewString()
	defer o.publish(id)

	started := o.now()
	out := o.cycle(ctx, id)

	if out.Notice != "" {
		if err := o.noticer.Notify(ctx, out.Notice); err != nil {
			log.Printf("[ERROR] sync %s: send notice: %v", id, err)
		}
	}
	o.recordRun(ctx, started, out)

	if out.Kind == model.OutcomeFailed {
		log.Printf("[WARN] sync %s: failed (%s): %v", id, out.Failure, out.Reason)
	} else {
		log.Printf("[INFO] sync %s: %s, %d records", id, out.Kind, out.Count)
	}
	return out
}

func (o *Orchestrator) cycle(ctx context.Context, id string) model.Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()

	symbols, err := o.watchlist.Symbols(ctx)
	if err != nil {
		return failed(id, model.FailureStoreRead, fmt.Errorf("read watchlist: %w", err), NoticeStoreRead)
	}
	if len(symbols) == 0 {
		return model.Outcome{CycleID: id, Kind: model.OutcomeNoSymbols}
	}

	log.Printf("[INFO] sync %s: fetching %d symbols from %s", id, len(symbols), o.fetcher.Name())
	fetchCtx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
	results, err := o.fetcher.FetchQuotes(fetchCtx, symbols)
	cancel()
	if err != nil {
		// every batch-level error, timeouts included, is transient
		return failed(id, model.FailureNetwork, err, NoticeNetwork)
	}

	now := o.now()
	records := make([]model.QuoteRecord, 0, len(symbols))
	var invalid []string
	for _, sym := range symbols {
		res, ok := results[sym]
		switch {
		case !ok:
			invalid = append(invalid, sym)
		case res.Err != nil:
			if bad, ok := collector.InvalidSymbol(res.Err); ok && bad == sym {
				invalid = append(invalid, sym)
				continue
			}
			log.Printf("[WARN] sync %s: %s skipped: %v", id, sym, res.Err)
		case res.Quote != nil:
			q := *res.Quote
			q.Symbol = sym
			if len(q.History) == 0 {
				log.Printf("[WARN] sync %s: %s has no history, keeping stored series", id, sym)
			}
			records = append(records, model.NewQuoteRecord(&q, now))
		}
	}

	if err := o.quotes.BulkUpsert(ctx, records); err != nil {
		return failed(id, model.FailureStoreWrite, fmt.Errorf("bulk upsert: %w", err), NoticeStoreWrite)
	}

	if len(invalid) == 0 {
		return model.Outcome{CycleID: id, Kind: model.OutcomeUpdated, Count: len(records)}
	}

	var errs []error
	for _, sym := range invalid {
		errs = append(errs, &collector.InvalidSymbolError{Symbol: sym})
		if err := o.watchlist.Remove(ctx, sym); err != nil {
			log.Printf("[ERROR] sync %s: remove %s from watchlist: %v", id, sym, err)
		}
		if err := o.quotes.Delete(ctx, sym); err != nil {
			log.Printf("[ERROR] sync %s: delete record %s: %v", id, sym, err)
		}
	}
	out := failed(id, model.FailureInvalidSymbol, errors.Join(errs...), noticeNotFound+strings.Join(invalid, ", "))
	out.Count = len(records)
	out.Removed = invalid
	return out
}

func failed(id string, kind model.FailureKind, reason error, notice string) model.Outcome {
	return model.Outcome{
		CycleID: id,
		Kind:    model.OutcomeFailed,
		Failure: kind,
		Reason:  reason,
		Notice:  notice,
	}
}

func (o *Orchestrator) recordRun(ctx context.Context, started time.Time, out model.Outcome) {
	if o.runs == nil {
		return
	}
	run := &model.SyncRun{
		CycleID:    out.CycleID,
		StartedAt:  started,
		FinishedAt: o.now(),
		Outcome:    out.Kind,
		Failure:    out.Failure,
		Count:      out.Count,
	}
	if out.Reason != nil {
		run.Reason = out.Reason.Error()
	}
	if err := o.runs.RecordSyncRun(ctx, run); err != nil {
		log.Printf("[ERROR] sync %s: record run: %v", out.CycleID, err)
	}
}

func (o *Orchestrator) publish(id string) {
	o.events.Publish(notifier.Event{Kind: notifier.DataUpdated, CycleID: id})
}

// Track adds a symbol to the watchlist. It returns the normalized symbol.
// The caller decides whether to sync right away.
func (o *Orchestrator) Track(ctx context.Context, symbol string) (string, error) {
	sym, err := watchlist.Normalize(symbol)
	if err != nil {
		return "", fmt.Errorf("%q: %w", symbol, err)
	}

	o.mu.Lock()
	err = o.watchlist.Add(ctx, sym)
	o.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("add %s: %w", sym, err)
	}
	o.publish("")
	log.Printf("[INFO] tracking %s", sym)
	return sym, nil
}

// Untrack removes a symbol and its stored record.
func (o *Orchestrator) Untrack(ctx context.Context, symbol string) (string, error) {
	sym, err := watchlist.Normalize(symbol)
	if err != nil {
		return "", fmt.Errorf("%q: %w", symbol, err)
	}

	o.mu.Lock()
	err = o.watchlist.Remove(ctx, sym)
	if err == nil {
		err = o.quotes.Delete(ctx, sym)
	}
	o.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("remove %s: %w", sym, err)
	}
	o.publish("")
	log.Printf("[INFO] untracked %s", sym)
	return sym, nil
}
