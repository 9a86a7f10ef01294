package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bancario/account-service/internal/domain/account"
	"github.com/bancario/account-service/internal/domain/shared"
	"github.com/bancario/account-service/internal/domain/snapshot"
	"github.com/bancario/account-service/internal/platform/resilience"
)

// failingService returns err from every call after embedding a working Manager
type failingService struct {
	*Manager
	err   error
	delay time.Duration
}

func (s *failingService) GetAccountByID(ctx context.Context, id string) (*account.Account, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.Manager.GetAccountByID(ctx, id)
}

func (s *failingService) IncrementTransactionCounter(ctx context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	return s.Manager.IncrementTransactionCounter(ctx, id)
}

func (s *failingService) RecordMovement(ctx context.Context, id, transactionID string) error {
	if s.err != nil {
		return s.err
	}
	return s.Manager.RecordMovement(ctx, id, transactionID)
}

func (s *failingService) GetDailyBalances(ctx context.Context, customerID string, start, end time.Time) ([]snapshot.DailyBalanceRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.Manager.GetDailyBalances(ctx, customerID, start, end)
}

func testSettings() resilience.Settings {
	s := resilience.DefaultSettings("test")
	s.RequestVolumeThreshold = 4
	s.Timeout = 50 * time.Millisecond
	s.Delay = time.Hour
	return s
}

func TestGuardedService_PassesThroughDomainOutcomes(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	guarded := NewGuardedService(newTestLogger(), f.manager, testSettings())

	for i := 0; i < 10; i++ {
		_, err := guarded.GetAccountByID(ctx, "ffffffffffffffffffffffff")
		require.ErrorIs(t, err, shared.NotFoundError{Resource: "account"})
	}
	assert.Equal(t, resilience.StateClosed, guarded.Breaker(OpGetAccountByID).State())

	loan, err := guarded.CreateAccount(ctx, credit("biz-1", account.CreditBusiness))
	require.NoError(t, err)
	_, err = guarded.GetTransactionStatus(ctx, loan.ID)
	assert.ErrorIs(t, err, shared.BusinessRuleError{})
}

func TestGuardedService_StoreFailureFallsBackAndTrips(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	storeErr := shared.DataAccessError{Operation: "find account", Cause: errors.New("boom")}
	svc := &failingService{Manager: f.manager, err: storeErr}
	guarded := NewGuardedService(newTestLogger(), svc, testSettings())

	for i := 0; i < 4; i++ {
		_, err := guarded.GetAccountByID(ctx, "id")

		var unavailable shared.ServiceUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, OpGetAccountByID, unavailable.Operation)
		assert.ErrorIs(t, err, shared.DataAccessError{}, "cause is kept for logging")
	}
	assert.Equal(t, resilience.StateOpen, guarded.Breaker(OpGetAccountByID).State())

	_, err := guarded.GetAccountByID(ctx, "id")
	assert.ErrorIs(t, err, shared.ServiceUnavailableError{})
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestGuardedService_StoreFailureClassification(t *testing.T) {
	ctx := context.Background()
	storeErr := shared.DataAccessError{Operation: "store", Cause: errors.New("connection reset")}

	testCases := []struct {
		name            string
		call            func(g *GuardedService) error
		wantUnavailable bool
	}{
		{
			name: "IncrementTransactionCounter",
			call: func(g *GuardedService) error {
				return g.IncrementTransactionCounter(ctx, "ffffffffffffffffffffffff")
			},
			wantUnavailable: true,
		},
		{
			name: "RecordMovement",
			call: func(g *GuardedService) error {
				return g.RecordMovement(ctx, "ffffffffffffffffffffffff", "tx-1")
			},
			wantUnavailable: true,
		},
		{
			name: "GetDailyBalances",
			call: func(g *GuardedService) error {
				_, err := g.GetDailyBalances(ctx, "personal-1", testNow.AddDate(0, 0, -7), testNow)
				return err
			},
			wantUnavailable: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			guarded := NewGuardedService(newTestLogger(), &failingService{Manager: f.manager, err: storeErr}, testSettings())

			err := tc.call(guarded)

			require.ErrorIs(t, err, shared.DataAccessError{})
			assert.Equal(t, tc.wantUnavailable, errors.Is(err, shared.ServiceUnavailableError{}))
		})
	}
}

func TestGuardedService_UnclassifiedFailureFallsBack(t *testing.T) {
	f := newFixture()
	svc := &failingService{Manager: f.manager, err: errors.New("unexpected")}
	guarded := NewGuardedService(newTestLogger(), svc, testSettings())

	_, err := guarded.GetAccountByID(context.Background(), "id")

	var unavailable shared.ServiceUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, OpGetAccountByID, unavailable.Operation)
}

func TestGuardedService_TimeoutFallsBack(t *testing.T) {
	f := newFixture()
	svc := &failingService{Manager: f.manager, delay: time.Second}
	guarded := NewGuardedService(newTestLogger(), svc, testSettings())

	_, err := guarded.GetAccountByID(context.Background(), "id")

	assert.ErrorIs(t, err, shared.ServiceUnavailableError{})
	assert.ErrorIs(t, err, resilience.ErrTimeout)
}

func TestGuardedService_BreakersAreIndependent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := &failingService{Manager: f.manager, err: errors.New("down")}
	guarded := NewGuardedService(newTestLogger(), svc, testSettings())

	for i := 0; i < 4; i++ {
		_, _ = guarded.GetAccountByID(ctx, "id")
	}
	require.Equal(t, resilience.StateOpen, guarded.Breaker(OpGetAccountByID).State())
	svc.err = nil

	acc, err := guarded.CreateAccount(ctx, savings("personal-1"))
	require.NoError(t, err)
	assert.NoError(t, guarded.IncrementTransactionCounter(ctx, acc.ID))
	assert.Equal(t, resilience.StateClosed, guarded.Breaker(OpIncrementTransactionCounter).State())

	_, err = guarded.GetAccountByID(ctx, acc.ID)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen, "the tripped breaker stays open")
}
