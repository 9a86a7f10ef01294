package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bancario/account-service/internal/account_worker/service"
	"github.com/bancario/account-service/internal/domain/shared"
	"github.com/bancario/account-service/internal/platform/messaging/producers"
)

// MovementEventHandler turns movement messages into transaction counter increments.
// Messages that can never succeed are parked in the DLQ and committed; transient
// failures are returned so the consumer redelivers the message.
type MovementEventHandler struct {
	processor service.MovementProcessor
	dlq       producers.DeadLetterPublisher
	logger    *slog.Logger
}

func NewMovementEventHandler(logger *slog.Logger, processor service.MovementProcessor, dlq producers.DeadLetterPublisher) *MovementEventHandler {
	return &MovementEventHandler{
		processor: processor,
		dlq:       dlq,
		logger:    logger,
	}
}

// HandleMessage matches consumers.MessageHandler
func (h *MovementEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var movement shared.MovementEvent
	if err := json.Unmarshal(value, &movement); err != nil {
		h.logger.Error("Failed to unmarshal movement event", "message_key", string(key), "error", err)
		return h.deadLetter(ctx, string(key), value, shared.DLQReasonMalformedMessage, err)
	}

	logger := h.logger
	if movement.CorrelationID != "" {
		logger = h.logger.With("correlation_id", movement.CorrelationID)
		ctx = shared.WithCorrelationID(ctx, movement.CorrelationID)
	}

	if strings.TrimSpace(movement.AccountID) == "" {
		logger.Warn("Movement event without account id", "transaction_id", movement.TransactionID)
		return h.deadLetter(ctx, string(key), value, shared.DLQReasonMissingAccountID, nil)
	}

	err := h.processor.ProcessMovement(ctx, &movement)
	switch {
	case err == nil:
		logger.Info("Movement counted",
			"transaction_id", movement.TransactionID,
			"account_id", movement.AccountID)
		return nil
	case errors.Is(err, shared.NotFoundError{}):
		logger.Warn("Movement references an unknown account", "account_id", movement.AccountID)
		return h.deadLetter(ctx, string(key), value, shared.DLQReasonAccountNotFound, err)
	case shared.IsDomainOutcome(err):
		logger.Warn("Movement rejected", "account_id", movement.AccountID, "error", err)
		return h.deadLetter(ctx, string(key), value, shared.DLQReasonMalformedMessage, err)
	default:
		logger.Error("Failed to count movement, leaving it for redelivery",
			"transaction_id", movement.TransactionID,
			"account_id", movement.AccountID,
			"error", err)
		return fmt.Errorf("processing movement %s failed: %w", movement.TransactionID, err)
	}
}

// deadLetter parks the message; if the DLQ write fails the message stays uncommitted
func (h *MovementEventHandler) deadLetter(ctx context.Context, key string, value []byte, reason shared.DLQReason, cause error) error {
	if err := h.dlq.PublishToDLQ(ctx, key, value, reason); err != nil {
		if errors.Is(err, producers.ErrDLQDisabled) {
			h.logger.Warn("Dropping unprocessable movement, DLQ disabled", "message_key", key, "reason", string(reason))
			return nil
		}
		h.logger.Error("Failed to publish movement to DLQ",
			"message_key", key,
			"reason", string(reason),
			"dlq_error", err,
			"original_error", cause)
		return fmt.Errorf("failed to dead-letter movement %s: %w", key, err)
	}
	return nil
}
