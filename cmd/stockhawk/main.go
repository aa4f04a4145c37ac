// stockhawk keeps a watchlist of stock quotes in sync with Yahoo Finance.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StockHawk/internal/config"
	"StockHawk/internal/model"
	"StockHawk/internal/notifier"
	"StockHawk/internal/recorder"
	"StockHawk/internal/scheduler"
	"StockHawk/internal/watchlist"

	"github.com/spf13/cobra"
)

var (
	cfgPath string
	memory  bool
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	rootCmd := &cobra.Command{
		Use:           "stockhawk",
		Short:         "Stock quote watchlist sync",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.Path(), "Path to the YAML config (env CONFIG_PATH)")
	rootCmd.PersistentFlags().BoolVar(&memory, "memory", false, "Keep everything in memory instead of SQLite")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(removeCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(detailCmd())
	rootCmd.AddCommand(runsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withApp wires the components, runs fn and closes the store.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfgPath, memory)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the sync daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Println("[INFO] StockHawk starting...")
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return withApp(cmd, func(_ context.Context, a *app) error {
				mode, err := notifier.ParseDisplayMode(a.cfg.Display.Mode)
				if err != nil {
					return err
				}
				sched := scheduler.NewScheduler(ctx, a.orch, a.quotes, scheduler.Options{
					InitialBackoff: time.Duration(a.cfg.Schedule.InitialBackoffSec) * time.Second,
					MaxBackoff:     time.Duration(a.cfg.Schedule.MaxBackoffSec) * time.Second,
					Mode:           mode,
				})
				if err := sched.Register(a.cfg.Schedule.SyncCron); err != nil {
					return err
				}

				events, unsubscribe := a.orch.Events().Subscribe()
				defer unsubscribe()
				go logUpdates(ctx, a.quotes, events)

				sched.Start()
				defer sched.Stop()

				if a.telegram != nil {
					go a.telegram.StartPolling(ctx, sched.HandleCommand)
					log.Println("[INFO] Telegram polling started")
				}

				// first cycle right away, then on schedule
				go sched.RunNow()

				log.Println("[INFO] StockHawk is running. Press Ctrl+C to stop.")
				<-ctx.Done()
				log.Printf("[INFO] shutdown signal received after %d update signals, stopping...",
					a.orch.Events().Published())
				return nil
			})
		},
	}
}

// logUpdates re-reads the store on every DataUpdated signal.
func logUpdates(ctx context.Context, quotes recorder.QuoteStore, events <-chan notifier.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			recs, err := quotes.List(ctx)
			if err != nil {
				log.Printf("[WARN] read store after %s: %v", ev.Kind, err)
				continue
			}
			log.Printf("[INFO] %s: %d records in store", ev.Kind, len(recs))
		}
	}
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return report(a.orch.RunSyncCycle(ctx))
			})
		},
	}
}

func report(out model.Outcome) error {
	fmt.Println(scheduler.Describe(out))
	if out.Notice != "" {
		fmt.Println(out.Notice)
	}
	if !out.OK() {
		return fmt.Errorf("sync %s failed: %s", out.CycleID, out.Failure)
	}
	return nil
}

func addCmd() *cobra.Command {
	var noSync bool
	cmd := &cobra.Command{
		Use:   "add SYM [SYM...]",
		Short: "Watch symbols and sync them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				var errs []error
				for _, s := range args {
					sym, err := a.orch.Track(ctx, s)
					if err != nil {
						errs = append(errs, err)
						continue
					}
					fmt.Printf("Added %s\n", sym)
				}
				if err := errors.Join(errs...); err != nil {
					return err
				}
				if noSync {
					return nil
				}
				return report(a.orch.RunSyncCycle(ctx))
			})
		},
	}
	cmd.Flags().BoolVar(&noSync, "no-sync", false, "Only update the watchlist")
	return cmd
}

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove SYM [SYM...]",
		Short: "Stop watching symbols and drop their stored quotes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				var errs []error
				for _, s := range args {
					sym, err := a.orch.Untrack(ctx, s)
					if err != nil {
						errs = append(errs, err)
						continue
					}
					fmt.Printf("Removed %s\n", sym)
				}
				return errors.Join(errs...)
			})
		},
	}
}

func listCmd() *cobra.Command {
	var modeFlag string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show stored quotes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if modeFlag == "" {
					modeFlag = a.cfg.Display.Mode
				}
				mode, err := notifier.ParseDisplayMode(modeFlag)
				if err != nil {
					return err
				}
				recs, err := a.quotes.List(ctx)
				if err != nil {
					return err
				}
				fmt.Print(notifier.FormatQuoteList(recs, mode))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&modeFlag, "mode", "", "absolute or percentage (default from config)")
	return cmd
}

func detailCmd() *cobra.Command {
	var weeks int
	cmd := &cobra.Command{
		Use:   "detail SYM",
		Short: "Show price history statistics for one symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				sym, err := watchlist.Normalize(args[0])
				if err != nil {
					return fmt.Errorf("%q: %w", args[0], err)
				}
				rec, err := a.quotes.Get(ctx, sym)
				if errors.Is(err, recorder.ErrNotFound) {
					return fmt.Errorf("no data for %s yet", sym)
				}
				if err != nil {
					return err
				}
				fmt.Print(notifier.FormatDetail(*rec, weeks))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&weeks, "weeks", 8, "Number of recent weekly closes to print")
	return cmd
}

func runsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent sync cycles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if a.db == nil {
					return errors.New("sync history is only kept in SQLite")
				}
				runs, err := a.db.RecentRuns(ctx, limit)
				if err != nil {
					return err
				}
				for _, r := range runs {
					line := fmt.Sprintf("%s  %s  %-10s %d", r.StartedAt.Format("2006-01-02 15:04:05"),
						shortID(r.CycleID), r.Outcome, r.Count)
					if r.Failure != model.FailureNone {
						line += fmt.Sprintf("  %s: %s", r.Failure, r.Reason)
					}
					fmt.Println(line)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
