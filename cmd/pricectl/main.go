// Command pricectl runs PriceWatch operations from the command line.
//
// Usage:
//
//	pricectl sweep --interval daily
//	pricectl sweep                      # every due product
//	pricectl check --id 42
//	pricectl history trim --keep 500
//	pricectl alerts purge --days 90
//	pricectl plans
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/pricewatch/internal/alert"
	"github.com/albapepper/pricewatch/internal/config"
	"github.com/albapepper/pricewatch/internal/currency"
	"github.com/albapepper/pricewatch/internal/db"
	"github.com/albapepper/pricewatch/internal/maintenance"
	"github.com/albapepper/pricewatch/internal/notify"
	"github.com/albapepper/pricewatch/internal/plan"
	"github.com/albapepper/pricewatch/internal/quote"
	"github.com/albapepper/pricewatch/internal/store"
	"github.com/albapepper/pricewatch/internal/tracker"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "pricectl",
		Short: "PriceWatch operations CLI",
	}

	root.AddCommand(sweepCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(alertsCmd())
	root.AddCommand(plansCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// sweep command
// --------------------------------------------------------------------------

func sweepCmd() *cobra.Command {
	var interval string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one sweep over due products",
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval != "" && !plan.ValidInterval(interval) {
				return fmt.Errorf("--interval must be hourly, daily or weekly, got %q", interval)
			}
			return runWithTracker(func(ctx context.Context, t *tracker.Tracker) error {
				stats, err := t.RunSweep(ctx, plan.Interval(interval))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), stats.Summary())
				if stats.Interrupted {
					return fmt.Errorf("sweep %s interrupted", stats.RunID)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&interval, "interval", "", "Only owners on this interval (hourly, daily, weekly); empty = all")
	return cmd
}

// --------------------------------------------------------------------------
// check command
// --------------------------------------------------------------------------

func checkCmd() *cobra.Command {
	var productID int64
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check one product now, regardless of its schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			if productID <= 0 {
				return fmt.Errorf("--id is required")
			}
			return runWithTracker(func(ctx context.Context, t *tracker.Tracker) error {
				res, err := t.CheckSingle(ctx, productID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s: %s", res.Title, currency.Format(res.NewPrice, ""))
				if res.OldPrice != nil {
					fmt.Fprintf(out, " (was %s, %+.1f%%)", currency.Format(*res.OldPrice, ""), -res.Change.Percent)
				}
				fmt.Fprintln(out)
				if res.Decision.Priority != alert.PriorityNone {
					fmt.Fprintf(out, "alert: %s (notified=%v)\n", res.Decision.Reason, res.Notified)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&productID, "id", 0, "Product ID to check")
	return cmd
}

// --------------------------------------------------------------------------
// history / alerts maintenance commands
// --------------------------------------------------------------------------

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Price history maintenance",
	}

	var keep int
	trim := &cobra.Command{
		Use:   "trim",
		Short: "Keep only the newest entries of every product's history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if !cmd.Flags().Changed("keep") {
					keep = cfg.HistoryKeepPerProduct
				}
				start := time.Now()
				n, err := maintenance.TrimHistory(ctx, pool.Pool, keep)
				if err != nil {
					return err
				}
				logger.Info("History trimmed", "keep", keep, "deleted", n, "duration", time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
	trim.Flags().IntVar(&keep, "keep", 500, "Entries kept per product (default HISTORY_KEEP_PER_PRODUCT)")
	cmd.AddCommand(trim)
	return cmd
}

func alertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Alert log maintenance",
	}

	var days int
	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete alert log rows older than the retention",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				retention := cfg.AlertLogRetention
				if cmd.Flags().Changed("days") {
					retention = time.Duration(days) * 24 * time.Hour
				}
				n, err := maintenance.PurgeAlerts(ctx, pool.Pool, retention)
				if err != nil {
					return err
				}
				logger.Info("Alert log purged", "retention", retention, "deleted", n)
				return nil
			})
		},
	}
	purge.Flags().IntVar(&days, "days", 90, "Retention in days (default ALERT_LOG_RETENTION_DAYS)")
	cmd.AddCommand(purge)
	return cmd
}

// --------------------------------------------------------------------------
// plans command
// --------------------------------------------------------------------------

func plansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List subscription plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s %-8s %s\n", "PLAN", "INTERVAL", "MAX PRODUCTS")
			for _, p := range plan.All() {
				fmt.Fprintf(out, "%-10s %-8s %d\n", p.ID, p.Interval, p.MaxProducts)
			}
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// runWithDB handles config loading, DB connection, and context cancellation.
func runWithDB(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

// runWithTracker builds a fully wired tracker on top of runWithDB.
func runWithTracker(fn func(ctx context.Context, t *tracker.Tracker) error) error {
	return runWithDB(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
		fetcher, closeQuotes := quote.NewFromConfig(ctx, cfg, logger)
		defer closeQuotes()

		sender, closeSender, err := notify.New(cfg, logger)
		if err != nil {
			return fmt.Errorf("notifier: %w", err)
		}
		defer closeSender()

		t := tracker.New(store.New(pool.Pool), fetcher, sender, tracker.OptionsFromConfig(cfg), logger)
		return fn(ctx, t)
	})
}
