// Package service applies movement events to accounts.
package service

import (
	"context"

	"github.com/bancario/account-service/internal/domain/shared"
)

// MovementProcessor applies one movement to its account
type MovementProcessor interface {
	ProcessMovement(ctx context.Context, movement *shared.MovementEvent) error
}

// TransactionCounter is the lifecycle operation a movement drives
type TransactionCounter interface {
	RecordMovement(ctx context.Context, id, transactionID string) error
}
