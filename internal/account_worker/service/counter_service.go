package service

import (
	"context"
	"log/slog"

	"github.com/bancario/account-service/internal/domain/shared"
)

// CounterService counts each movement against the account's monthly free limit
type CounterService struct {
	counter TransactionCounter
	logger  *slog.Logger
}

func NewCounterService(logger *slog.Logger, counter TransactionCounter) *CounterService {
	return &CounterService{counter: counter, logger: logger}
}

func (s *CounterService) ProcessMovement(ctx context.Context, movement *shared.MovementEvent) error {
	if err := s.counter.RecordMovement(ctx, movement.AccountID, movement.TransactionID); err != nil {
		return err
	}
	s.logger.Debug("Monthly transaction counter incremented",
		"account_id", movement.AccountID,
		"transaction_id", movement.TransactionID)
	return nil
}
