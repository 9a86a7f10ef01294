package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bancario/account-service/internal/account_worker/consumer"
	"github.com/bancario/account-service/internal/account_worker/eod"
	"github.com/bancario/account-service/internal/account_worker/service"
	"github.com/bancario/account-service/internal/config"
	"github.com/bancario/account-service/internal/data/mongo"
	"github.com/bancario/account-service/internal/data/postgres"
	"github.com/bancario/account-service/internal/lifecycle"
	"github.com/bancario/account-service/internal/logger"
	"github.com/bancario/account-service/internal/platform/customerdirectory"
	"github.com/bancario/account-service/internal/platform/messaging/consumers"
	"github.com/bancario/account-service/internal/platform/messaging/producers"
	"github.com/bancario/account-service/internal/platform/persistence"
	"github.com/bancario/account-service/internal/platform/resilience"
)

func main() {
	runEODNow := flag.Bool("run-eod-now", false, "take one EOD snapshot and exit")
	flag.Parse()

	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("account_worker")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	log.Info("Starting account worker",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"eod_schedule", cfg.Eod.Schedule,
		"eod_timezone", cfg.Eod.Timezone,
	)

	location, err := time.LoadLocation(cfg.Eod.Timezone)
	if err != nil {
		log.Error("Invalid EOD timezone", "timezone", cfg.Eod.Timezone, "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
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

	job := eod.NewJob(log, accountRepo, snapshotRepo,
		eod.WithLocation(location),
		eod.WithEventPublisher(eventProducer),
	)

	if *runEODNow {
		res := job.Run(appCtx)
		closeStores(appCtx, log, eventProducer, postgresDB, mongoDB)
		if res.Err != nil {
			os.Exit(1)
		}
		return
	}

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ producer", "error", err)
		os.Exit(1)
	}

	directory := customerdirectory.NewGuardedDirectory(log,
		customerdirectory.NewClient(log, &cfg.CustomerDirectory),
		resilience.NewBreaker(log, resilience.SettingsFromConfig("customer lookup", &cfg.FaultTolerance)))
	manager := lifecycle.NewManager(log, accountRepo, snapshotRepo, directory,
		lifecycle.WithEventPublisher(eventProducer))
	accountService := lifecycle.NewGuardedService(log, manager, resilience.SettingsFromConfig("", &cfg.FaultTolerance))

	workerPool, err := service.NewWorkerPoolProcessingService(
		service.NewCounterService(log, accountService),
		service.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		log,
	)
	if err != nil {
		log.Error("Failed to create worker pool", "error", err)
		os.Exit(1)
	}

	handler := consumer.NewMovementEventHandler(log, workerPool, dlqProducer)
	movementConsumer := consumers.NewMovementConsumer(appCtx, log, &cfg.Kafka)
	if err := movementConsumer.Subscribe(appCtx, handler.HandleMessage); err != nil {
		log.Error("Failed to subscribe to movements", "error", err)
		os.Exit(1)
	}

	scheduler, err := eod.NewScheduler(log, job, cfg.Eod.Schedule, location)
	if err != nil {
		log.Error("Failed to create EOD scheduler", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	log.Info("Shutdown signal received, starting graceful shutdown")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	scheduler.Stop(shutdownCtx)

	// Stop fetching before draining the pool so no new movement is submitted
	cancelAppCtx()
	select {
	case <-movementConsumer.Done():
	case <-shutdownCtx.Done():
		log.Warn("Movement consumer did not stop before the shutdown deadline")
	}
	workerPool.Shutdown(cfg.Server.ShutdownTimeout)

	if err := movementConsumer.Close(); err != nil {
		log.Error("Error closing movement consumer", "error", err)
	}
	if err := dlqProducer.Close(); err != nil {
		log.Error("Error closing DLQ producer", "error", err)
	}
	closeStores(shutdownCtx, log, eventProducer, postgresDB, mongoDB)

	log.Info("Account worker shutdown completed")
}
