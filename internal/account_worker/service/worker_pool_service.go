package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/bancario/account-service/internal/domain/shared"
)

type WorkerPoolConfig struct {
	Size int
}

// WorkerPoolProcessingService runs movements on a bounded ants pool. Callers
// block until their movement is processed, so the pool size caps how many
// counter updates hit the account store at once.
type WorkerPoolProcessingService struct {
	base   MovementProcessor
	pool   *ants.Pool
	logger *slog.Logger
}

func NewWorkerPoolProcessingService(base MovementProcessor, config WorkerPoolConfig, logger *slog.Logger) (*WorkerPoolProcessingService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	return &WorkerPoolProcessingService{
		base:   base,
		pool:   pool,
		logger: logger,
	}, nil
}

func (s *WorkerPoolProcessingService) ProcessMovement(ctx context.Context, movement *shared.MovementEvent) error {
	logger := s.logger
	if movement.CorrelationID != "" {
		logger = s.logger.With("correlation_id", movement.CorrelationID)
	}

	result := make(chan error, 1)
	movementCopy := *movement

	err := s.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("movement %s panicked: %v", movementCopy.TransactionID, r)
			}
		}()
		result <- s.base.ProcessMovement(ctx, &movementCopy)
	})
	if err != nil {
		logger.Error("Failed to submit movement to worker pool",
			"transaction_id", movement.TransactionID,
			"error", err)
		return fmt.Errorf("failed to submit movement: %w", err)
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown releases the pool, waiting up to timeout for in-flight movements
func (s *WorkerPoolProcessingService) Shutdown(timeout time.Duration) {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	if err := s.pool.ReleaseTimeout(timeout); err != nil {
		s.logger.Warn("Worker pool did not drain before timeout", "error", err)
	}
}

func (s *WorkerPoolProcessingService) Running() int {
	return s.pool.Running()
}

func (s *WorkerPoolProcessingService) Capacity() int {
	return s.pool.Cap()
}
