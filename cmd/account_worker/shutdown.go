package main

import (
	"context"
	"log/slog"

	"github.com/bancario/account-service/internal/platform/messaging/producers"
	"github.com/bancario/account-service/internal/platform/persistence"
)

func closeStores(ctx context.Context, log *slog.Logger, events producers.MessagePublisher, pg *persistence.PostgresDB, mongoDB *persistence.MongoDB) {
	if err := events.Close(); err != nil {
		log.Error("Error closing account event producer", "error", err)
	}
	pg.Close()
	if err := mongoDB.Close(ctx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}
}
