package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/weltonoliveiral/domusfinance/internal/amqp"
	"github.com/weltonoliveiral/domusfinance/internal/clock"
	"github.com/weltonoliveiral/domusfinance/internal/config"
	apphttp "github.com/weltonoliveiral/domusfinance/internal/http"
	"github.com/weltonoliveiral/domusfinance/internal/log"
	"github.com/weltonoliveiral/domusfinance/internal/services"
	"github.com/weltonoliveiral/domusfinance/internal/storage"
)

func main() {
	// .env is for local development; in containers the variables come from
	// the environment directly.
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentAPI})
	log.SetDefault(logger)

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

	// Budget checks ride through AMQP. The API stays up without the broker;
	// mutations then simply skip the publish and the daily sweep catches up.
	var publisher services.CheckPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, budget checks deferred to the daily sweep", log.FieldError, err)
	} else {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	deps := apphttp.Deps{
		Expenses: services.NewExpenseService(repo, publisher, clk),
		Budgets:  services.NewBudgetService(repo, clk),
		Reset:    services.NewPasswordResetService(repo, clk, cfg.TokenTTL),
		Repo:     repo,
		Clock:    clk,
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting API server", "port", cfg.Port, "timezone", cfg.Timezone)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
