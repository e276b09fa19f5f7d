package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/weltonoliveiral/domusfinance/internal/amqp"
	"github.com/weltonoliveiral/domusfinance/internal/clock"
	"github.com/weltonoliveiral/domusfinance/internal/config"
	"github.com/weltonoliveiral/domusfinance/internal/log"
	"github.com/weltonoliveiral/domusfinance/internal/monitor"
	"github.com/weltonoliveiral/domusfinance/internal/storage"
)

// monitor-worker consumes budget check messages and evaluates the
// affected user's budgets, writing alerts as thresholds are crossed.
func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting monitor-worker")

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

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	evaluator := monitor.NewEvaluator(repo, clk, cfg.DedupeWindow)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("Consuming budget checks", "queue", cfg.AMQPQueue)
	err = amqpClient.ConsumeBudgetChecks(ctx, func(ctx context.Context, msg *amqp.BudgetCheckMessage) error {
		logger.Info("Budget check received",
			log.FieldUserID, msg.UserID,
			log.FieldReason, msg.Reason)
		return evaluator.CheckUser(ctx, msg.UserID)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
