package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"StockHawk/internal/model"
	"StockHawk/internal/notifier"
	"StockHawk/internal/recorder"

	"github.com/robfig/cron/v3"
)

// DefaultSyncCron runs a cycle every five minutes.
const DefaultSyncCron = "0 */5 * * * *"

// ErrStopped is the outcome reason for cycles requested after Stop.
var ErrStopped = errors.New("scheduler stopped")

// Syncer is the part of the sync orchestrator the scheduler drives.
type Syncer interface {
	RunSyncCycle(ctx context.Context) model.Outcome
	Track(ctx context.Context, symbol string) (string, error)
	Untrack(ctx context.Context, symbol string) (string, error)
}

// Options tune retry behaviour and list rendering.
type Options struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Mode           notifier.DisplayMode
	DetailWeeks    int
}

// Scheduler triggers sync cycles on a cron schedule, retries network
// failures with exponential backoff and answers chat commands.
type Scheduler struct {
	Cron   *cron.Cron
	Sync   Syncer
	Quotes recorder.QuoteStore
	Ctx    context.Context

	initialBackoff time.Duration
	maxBackoff     time.Duration
	detailWeeks    int

	mu        sync.Mutex
	mode      notifier.DisplayMode
	backoff   time.Duration
	retry     *time.Timer
	lastCycle string // cycle id whose outcome already drove the backoff
	stopped   bool
	inflight  sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, s Syncer, quotes recorder.QuoteStore, opts Options) *Scheduler {
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 10 * time.Second
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = opts.InitialBackoff
	}
	if opts.Mode == "" {
		opts.Mode = notifier.ModeAbsolute
	}
	if opts.DetailWeeks <= 0 {
		opts.DetailWeeks = 8
	}
	return &Scheduler{
		Cron:           cron.New(cron.WithSeconds()),
		Sync:           s,
		Quotes:         quotes,
		Ctx:            ctx,
		initialBackoff: opts.InitialBackoff,
		maxBackoff:     opts.MaxBackoff,
		detailWeeks:    opts.DetailWeeks,
		mode:           opts.Mode,
	}
}

// Register adds the periodic sync job.
func (s *Scheduler) Register(syncCron string) error {
	if syncCron == "" {
		syncCron = DefaultSyncCron
	}
	if _, err := s.Cron.AddFunc(syncCron, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register sync task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and any pending retry, then waits for
// cycles already running to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
	s.mu.Unlock()

	<-s.Cron.Stop().Done()
	s.inflight.Wait()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes a sync cycle immediately. After Stop it returns a failed
// outcome with ErrStopped without running anything.
func (s *Scheduler) RunNow() model.Outcome {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return model.Outcome{Kind: model.OutcomeFailed, Reason: ErrStopped}
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	out := s.Sync.RunSyncCycle(s.Ctx)
	s.afterCycle(out)
	return out
}

// Backoff returns the delay of the pending network retry, zero if none.
func (s *Scheduler) Backoff() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backoff
}

func (s *Scheduler) afterCycle(out model.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// callers that joined the same cycle see the same outcome; count it once
	if out.CycleID != "" && out.CycleID == s.lastCycle {
		return
	}
	s.lastCycle = out.CycleID

	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
	if out.Failure != model.FailureNetwork {
		s.backoff = 0
		return
	}
	if s.stopped || s.Ctx.Err() != nil {
		return
	}

	if s.backoff == 0 {
		s.backoff = s.initialBackoff
	} else {
		s.backoff = min(s.backoff*2, s.maxBackoff)
	}
	log.Printf("[WARN] sync %s hit a network failure, retrying in %v", out.CycleID, s.backoff)
	s.retry = time.AfterFunc(s.backoff, func() { s.RunNow() })
}

// Mode returns the current change display mode.
func (s *Scheduler) Mode() notifier.DisplayMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

const helpText = `Available commands:
• /list - watched symbols with latest quotes
• /add SYM [SYM...] - watch symbols
• /remove SYM [SYM...] - stop watching symbols
• /sync - fetch quotes now
• /detail SYM - price history for one symbol
• /mode absolute|percentage - how daily change is shown`

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// "/list@MyBot" in group chats
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch name {
	case "/list":
		return s.list()
	case "/add":
		return s.edit("add", "Added", args, s.Sync.Track)
	case "/remove":
		return s.edit("remove", "Removed", args, s.Sync.Untrack)
	case "/sync":
		return Describe(s.RunNow())
	case "/detail":
		if len(args) != 1 {
			return "Usage: /detail SYM"
		}
		return s.detail(args[0])
	case "/mode":
		if len(args) != 1 {
			return fmt.Sprintf("Display mode: %s", s.Mode())
		}
		m, err := notifier.ParseDisplayMode(args[0])
		if err != nil {
			return "Usage: /mode absolute|percentage"
		}
		s.mu.Lock()
		s.mode = m
		s.mu.Unlock()
		return fmt.Sprintf("Display mode set to %s", m)
	default:
		return helpText
	}
}

func (s *Scheduler) list() string {
	recs, err := s.Quotes.List(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] list quotes: %v", err)
		return "Could not read stored quotes."
	}
	return notifier.FormatQuoteList(recs, s.Mode())
}

func (s *Scheduler) detail(symbol string) string {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	rec, err := s.Quotes.Get(s.Ctx, sym)
	if errors.Is(err, recorder.ErrNotFound) {
		return fmt.Sprintf("No data for %s yet.", sym)
	}
	if err != nil {
		log.Printf("[ERROR] get %s: %v", sym, err)
		return "Could not read stored quotes."
	}
	return notifier.FormatDetail(*rec, s.detailWeeks)
}

func (s *Scheduler) edit(cmd, verb string, args []string, op func(context.Context, string) (string, error)) string {
	if len(args) == 0 {
		return fmt.Sprintf("Usage: /%s SYM [SYM...]", cmd)
	}
	var done, bad []string
	for _, a := range args {
		sym, err := op(s.Ctx, a)
		if err != nil {
			log.Printf("[WARN] %s %q: %v", cmd, a, err)
			bad = append(bad, a)
			continue
		}
		done = append(done, sym)
	}

	var b strings.Builder
	if len(done) > 0 {
		fmt.Fprintf(&b, "%s %s.", verb, strings.Join(done, ", "))
	}
	if len(bad) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Not a valid symbol: %s", strings.Join(bad, ", "))
	}
	if cmd == "add" && len(done) > 0 {
		b.WriteString("\n")
		b.WriteString(Describe(s.RunNow()))
	}
	return b.String()
}

// Describe summarizes a cycle outcome for a chat or terminal reply.
func Describe(out model.Outcome) string {
	switch out.Kind {
	case model.OutcomeUpdated:
		return fmt.Sprintf("Sync done: %d quotes updated.", out.Count)
	case model.OutcomeNoSymbols:
		return "Sync done: watchlist is empty."
	default:
		if errors.Is(out.Reason, ErrStopped) {
			return "Sync skipped: shutting down."
		}
		return fmt.Sprintf("Sync failed (%s).", strings.ToLower(strings.ReplaceAll(string(out.Failure), "_", " ")))
	}
}
