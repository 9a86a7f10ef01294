package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bancario/account-service/internal/account_api"
	"github.com/bancario/account-service/internal/config"
	"github.com/bancario/account-service/internal/data/mongo"
	"github.com/bancario/account-service/internal/data/postgres"
	"github.com/bancario/account-service/internal/lifecycle"
	"github.com/bancario/account-service/internal/logger"
	"github.com/bancario/account-service/internal/platform/customerdirectory"
	"github.com/bancario/account-service/internal/platform/messaging/producers"
	"github.com/bancario/account-service/internal/platform/persistence"
	"github.com/bancario/account-service/internal/platform/resilience"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("account_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}
	if err := mongoDB.EnsureIndexes(appCtx, mongo.AccountCollectionName, persistence.AccountIndexes()); err != nil {
		log.Error("Failed to ensure account indexes", "error", err)
		os.Exit(1)
	}

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	eventProducer, err := producers.NewAccountEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize account event producer", "error", err)
		os.Exit(1)
	}

	accountRepo := mongo.NewAccountRepository(log, mongoDB.Database())
	snapshotRepo := postgres.NewSnapshotRepository(log, postgresDB)

	directoryBreaker := resilience.NewBreaker(log, resilience.SettingsFromConfig("customer lookup", &cfg.FaultTolerance))
	directory := customerdirectory.NewGuardedDirectory(log,
		customerdirectory.NewClient(log, &cfg.CustomerDirectory), directoryBreaker)

	manager := lifecycle.NewManager(log, accountRepo, snapshotRepo, directory,
		lifecycle.WithEventPublisher(eventProducer),
		lifecycle.WithNumberRetryAttempts(cfg.Account.NumberRetryAttempts),
	)
	accountService := lifecycle.NewGuardedService(log, manager,
		resilience.SettingsFromConfig("", &cfg.FaultTolerance))

	server := account_api.NewServer(log, cfg, accountService,
		directoryBreaker,
		accountService.Breaker(lifecycle.OpGetAccountByID),
		accountService.Breaker(lifecycle.OpGetAccountByNumber),
		accountService.Breaker(lifecycle.OpGetTransactionStatus),
		accountService.Breaker(lifecycle.OpIncrementTransactionCounter),
		accountService.Breaker(lifecycle.OpGetDailyBalances),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case serverErr = <-errChan:
		log.Error("Server error occurred", "error", serverErr)
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// HTTP first so in-flight requests can still reach the stores
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}
	if err := eventProducer.Close(); err != nil {
		log.Error("Error closing account event producer", "error", err)
	}
	postgresDB.Close()
	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serverErr != nil {
		log.Error("Account API stopped with errors", "error", serverErr)
		os.Exit(1)
	}
	log.Info("Account API shutdown completed")
}
