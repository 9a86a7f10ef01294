package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bancario/account-service/internal/domain/account"
	"github.com/bancario/account-service/internal/domain/shared"
	"github.com/bancario/account-service/internal/domain/snapshot"
	"github.com/bancario/account-service/internal/platform/resilience"
)

// Guarded operation names, also used as breaker names
const (
	OpGetAccountByID              = "get account by id"
	OpGetAccountByNumber          = "get account by number"
	OpGetTransactionStatus        = "get transaction status"
	OpIncrementTransactionCounter = "increment transaction counter"
	OpGetDailyBalances            = "get daily balances"
)

// keepsDataAccess lists the operations whose store failures surface as DataAccessError.
// Every other guarded operation falls back to ServiceUnavailableError.
var keepsDataAccess = map[string]bool{
	OpGetDailyBalances: true,
}

var guardedOperations = []string{
	OpGetAccountByID,
	OpGetAccountByNumber,
	OpGetTransactionStatus,
	OpIncrementTransactionCounter,
	OpGetDailyBalances,
}

// GuardedService decorates a Service with one circuit breaker per read and counter
// operation. Open circuits, timeouts and store failures become ServiceUnavailableError.
// Domain outcomes pass through unchanged, as do the daily balance query's DataAccessErrors.
type GuardedService struct {
	next     Service
	breakers map[string]*resilience.Breaker
	logger   *slog.Logger
}

func NewGuardedService(logger *slog.Logger, next Service, settings resilience.Settings) *GuardedService {
	breakers := make(map[string]*resilience.Breaker, len(guardedOperations))
	for _, op := range guardedOperations {
		s := settings
		s.Name = op
		breakers[op] = resilience.NewBreaker(logger, s)
	}
	return &GuardedService{
		next:     next,
		breakers: breakers,
		logger:   logger,
	}
}

// Breaker exposes the breaker of op for health reporting
func (g *GuardedService) Breaker(op string) *resilience.Breaker {
	return g.breakers[op]
}

func guard[T any](ctx context.Context, g *GuardedService, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := resilience.Call(ctx, g.breakers[op], fn)
	if err == nil {
		return v, nil
	}
	if shared.IsDomainOutcome(err) || errors.Is(err, shared.ServiceUnavailableError{}) {
		return v, err
	}
	if keepsDataAccess[op] && errors.Is(err, shared.DataAccessError{}) {
		return v, err
	}

	g.logger.Warn("Guarded operation fell back",
		"operation", op,
		"breaker_state", g.breakers[op].State().String(),
		"error", err)
	var zero T
	return zero, shared.ServiceUnavailableError{Operation: op, Cause: err}
}

func (g *GuardedService) CreateAccount(ctx context.Context, req *account.CreationRequest) (*account.Account, error) {
	return g.next.CreateAccount(ctx, req)
}

func (g *GuardedService) GetAccountByID(ctx context.Context, id string) (*account.Account, error) {
	return guard(ctx, g, OpGetAccountByID, func(ctx context.Context) (*account.Account, error) {
		return g.next.GetAccountByID(ctx, id)
	})
}

func (g *GuardedService) GetAccountByNumber(ctx context.Context, number string) (*account.Account, error) {
	return guard(ctx, g, OpGetAccountByNumber, func(ctx context.Context) (*account.Account, error) {
		return g.next.GetAccountByNumber(ctx, number)
	})
}

func (g *GuardedService) ListAccountsByCustomer(ctx context.Context, customerID string) ([]*account.Account, error) {
	return g.next.ListAccountsByCustomer(ctx, customerID)
}

func (g *GuardedService) CloseAccount(ctx context.Context, id string) error {
	return g.next.CloseAccount(ctx, id)
}

func (g *GuardedService) UpdateBalance(ctx context.Context, id string, balance, amountUsed decimal.Decimal) (*account.Account, error) {
	return g.next.UpdateBalance(ctx, id, balance, amountUsed)
}

func (g *GuardedService) GetTransactionStatus(ctx context.Context, id string) (*account.TransactionStatus, error) {
	return guard(ctx, g, OpGetTransactionStatus, func(ctx context.Context) (*account.TransactionStatus, error) {
		return g.next.GetTransactionStatus(ctx, id)
	})
}

func (g *GuardedService) IncrementTransactionCounter(ctx context.Context, id string) error {
	_, err := guard(ctx, g, OpIncrementTransactionCounter, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.next.IncrementTransactionCounter(ctx, id)
	})
	return err
}

// RecordMovement shares the counter breaker with IncrementTransactionCounter
func (g *GuardedService) RecordMovement(ctx context.Context, id, transactionID string) error {
	_, err := guard(ctx, g, OpIncrementTransactionCounter, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.next.RecordMovement(ctx, id, transactionID)
	})
	return err
}

func (g *GuardedService) GetDailyBalances(ctx context.Context, customerID string, start, end time.Time) ([]snapshot.DailyBalanceRecord, error) {
	return guard(ctx, g, OpGetDailyBalances, func(ctx context.Context) ([]snapshot.DailyBalanceRecord, error) {
		return g.next.GetDailyBalances(ctx, customerID, start, end)
	})
}
