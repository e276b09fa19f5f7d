package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/weltonoliveiral/domusfinance/internal/clock"
	"github.com/weltonoliveiral/domusfinance/internal/config"
	"github.com/weltonoliveiral/domusfinance/internal/log"
	"github.com/weltonoliveiral/domusfinance/internal/monitor"
	"github.com/weltonoliveiral/domusfinance/internal/storage"
)

// sweep-worker runs the scheduled jobs: the daily fleet budget sweep, the
// end-of-month report, and the retention cleanups.
func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentSweeper})
	log.SetDefault(logger)

	logger.Info("Starting sweep-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	clk, err := clock.New(cfg.Timezone)
	if err != nil {
		logger.Error("Failed to load reporting timezone", log.FieldError, err, "timezone", cfg.Timezone)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	evaluator := monitor.NewEvaluator(repo, clk, cfg.DedupeWindow)
	sweeper := monitor.NewSweeper(repo, evaluator, clk,
		cfg.SweepConcurrency, cfg.NotificationRetention, cfg.DedupeWindow)
	scheduler := monitor.NewScheduler(clk)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.RunDaily(ctx, "daily_budget_sweep", cfg.DailySweepHour, sweeper.DailySweep)
	})
	g.Go(func() error {
		return scheduler.RunDaily(ctx, "monthly_report", cfg.MonthlyReportHour, sweeper.MonthlyReportSweep)
	})
	g.Go(func() error {
		return scheduler.RunDaily(ctx, "notification_cleanup", cfg.NotificationCleanupHour, sweeper.CleanupNotifications)
	})
	g.Go(func() error {
		return scheduler.RunEvery(ctx, "token_cleanup", cfg.TokenCleanupInterval, sweeper.CleanupResetTokens)
	})

	logger.Info("Schedules registered",
		"daily_sweep_hour", cfg.DailySweepHour,
		"monthly_report_hour", cfg.MonthlyReportHour,
		"notification_cleanup_hour", cfg.NotificationCleanupHour,
		"token_cleanup_interval", cfg.TokenCleanupInterval.String())

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Scheduler stopped", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
