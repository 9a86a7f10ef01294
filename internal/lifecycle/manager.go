package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bancario/account-service/internal/domain/account"
	"github.com/bancario/account-service/internal/domain/customer"
	"github.com/bancario/account-service/internal/domain/shared"
	"github.com/bancario/account-service/internal/domain/snapshot"
	"github.com/bancario/account-service/internal/platform/messaging/producers"
)

const defaultNumberRetryAttempts = 3

// Manager implements Service on top of the account and snapshot stores
type Manager struct {
	accounts      account.Repository
	snapshots     snapshot.Repository
	directory     customer.Directory
	evaluator     *account.EligibilityEvaluator
	assigner      *account.AttributeAssigner
	numbers       NumberSource
	events        producers.MessagePublisher // optional
	numberRetries int
	now           func() time.Time
	logger        *slog.Logger
}

// Option customises a Manager
type Option func(*Manager)

// WithEventPublisher enables lifecycle events; publishing is best effort
func WithEventPublisher(p producers.MessagePublisher) Option {
	return func(m *Manager) { m.events = p }
}

// WithNumberRetryAttempts bounds how many account numbers are tried on collision
func WithNumberRetryAttempts(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.numberRetries = n
		}
	}
}

func WithNumberSource(src NumberSource) Option {
	return func(m *Manager) { m.numbers = src }
}

func WithFeeSchedule(schedule account.FeeSchedule) Option {
	return func(m *Manager) { m.assigner = account.NewAttributeAssigner(schedule) }
}

func withClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(logger *slog.Logger, accounts account.Repository, snapshots snapshot.Repository, directory customer.Directory, opts ...Option) *Manager {
	m := &Manager{
		accounts:      accounts,
		snapshots:     snapshots,
		directory:     directory,
		evaluator:     account.NewEligibilityEvaluator(accounts),
		assigner:      account.NewAttributeAssigner(account.DefaultFeeSchedule()),
		numbers:       account.NewNumberGenerator(),
		numberRetries: defaultNumberRetryAttempts,
		now:           func() time.Time { return time.Now().UTC() },
		logger:        logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) CreateAccount(ctx context.Context, req *account.CreationRequest) (*account.Account, error) {
	if err := account.ValidateCreationRequest(req); err != nil {
		return nil, err
	}

	profile, err := m.lookupCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	decision, err := m.evaluator.Evaluate(ctx, req, profile)
	if err != nil {
		return nil, m.storeError("evaluate eligibility", err)
	}
	if !decision.Accepted {
		m.logger.Info("Account request rejected",
			"customer_id", req.CustomerID,
			"segment", string(profile.Segment),
			"product_type", string(req.ProductType),
			"reason", decision.Reason)
		return nil, decision.Err()
	}

	attrs := m.assigner.Assign(req, profile)

	var acc *account.Account
	for attempt := 1; ; attempt++ {
		acc = account.NewAccount(req, m.numbers.Generate(req.ProductType, req.AccountType), attrs, m.now())
		err = m.accounts.Insert(ctx, acc)
		if err == nil {
			break
		}
		if !errors.Is(err, account.ErrDuplicateAccountNumber{}) || attempt >= m.numberRetries {
			m.logger.Error("Failed to persist account",
				"customer_id", req.CustomerID,
				"attempt", attempt,
				"error", err)
			return nil, m.storeError("insert account", err)
		}
		m.logger.Warn("Account number collision, regenerating",
			"account_number", acc.AccountNumber,
			"attempt", attempt)
	}

	m.logger.Info("Account created",
		"account_id", acc.ID,
		"account_number", acc.AccountNumber,
		"customer_id", acc.CustomerID,
		"product_type", string(acc.ProductType))
	m.publish(ctx, shared.AccountEventOpened, acc, nil)

	return acc, nil
}

// lookupCustomer performs the single directory call of account creation
func (m *Manager) lookupCustomer(ctx context.Context, customerID string) (*customer.Profile, error) {
	profile, err := m.directory.GetCustomerByID(ctx, customerID)
	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, customer.ErrCustomerNotFound):
		return nil, shared.NotFoundError{Resource: "customer", ID: customerID}
	case shared.IsDomainOutcome(err), errors.Is(err, shared.ServiceUnavailableError{}):
		return nil, err
	default:
		return nil, shared.ServiceUnavailableError{Operation: "customer lookup", Cause: err}
	}
}

func (m *Manager) GetAccountByID(ctx context.Context, id string) (*account.Account, error) {
	acc, err := m.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, m.storeError("find account", err)
	}
	return acc, nil
}

func (m *Manager) GetAccountByNumber(ctx context.Context, number string) (*account.Account, error) {
	acc, err := m.accounts.FindByAccountNumber(ctx, number)
	if err != nil {
		return nil, m.storeError("find account by number", err)
	}
	return acc, nil
}

func (m *Manager) ListAccountsByCustomer(ctx context.Context, customerID string) ([]*account.Account, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, shared.ValidationError{Reason: "customerId is required"}
	}
	accounts, err := m.accounts.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, m.storeError("list accounts", err)
	}
	return accounts, nil
}

func (m *Manager) CloseAccount(ctx context.Context, id string) error {
	acc, err := m.accounts.FindByID(ctx, id)
	if err != nil {
		return m.storeError("find account", err)
	}
	if err := acc.Close(m.now()); err != nil {
		return err
	}
	if err := m.accounts.UpdateState(ctx, acc); err != nil {
		return m.storeError("close account", err)
	}

	m.logger.Info("Account closed", "account_id", acc.ID)
	m.publish(ctx, shared.AccountEventClosed, acc, nil)
	return nil
}

func (m *Manager) UpdateBalance(ctx context.Context, id string, balance, amountUsed decimal.Decimal) (*account.Account, error) {
	acc, err := m.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, m.storeError("find account", err)
	}
	acc.OverwriteBalances(balance, amountUsed, m.now())
	if err := m.accounts.UpdateState(ctx, acc); err != nil {
		return nil, m.storeError("update balance", err)
	}

	m.publish(ctx, shared.AccountEventBalanceUpdated, acc, map[string]string{
		"balance":     balance.String(),
		"amount_used": amountUsed.String(),
	})
	return acc, nil
}

func (m *Manager) GetTransactionStatus(ctx context.Context, id string) (*account.TransactionStatus, error) {
	acc, err := m.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, m.storeError("find account", err)
	}
	return acc.TransactionStatus()
}

func (m *Manager) IncrementTransactionCounter(ctx context.Context, id string) error {
	return m.incrementCounter(ctx, id, "")
}

func (m *Manager) RecordMovement(ctx context.Context, id, transactionID string) error {
	if strings.TrimSpace(transactionID) == "" {
		return shared.ValidationError{Reason: "transactionId is required"}
	}
	return m.incrementCounter(ctx, id, transactionID)
}

func (m *Manager) incrementCounter(ctx context.Context, id, movementID string) error {
	matched, err := m.accounts.IncrementMonthlyCounter(ctx, id, movementID)
	if err != nil {
		return m.storeError("increment transaction counter", err)
	}
	if matched == 0 {
		return account.NotFound(id)
	}
	return nil
}

func (m *Manager) GetDailyBalances(ctx context.Context, customerID string, start, end time.Time) ([]snapshot.DailyBalanceRecord, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, shared.ValidationError{Reason: "customerId is required"}
	}
	if end.Before(start) {
		return nil, shared.ValidationError{Reason: "endDate must not be before startDate"}
	}

	records, err := m.snapshots.FindByCustomerAndDateRange(ctx, customerID, snapshot.DateOf(start), snapshot.DateOf(end))
	if err != nil {
		m.logger.Error("Failed to load daily balances",
			"customer_id", customerID,
			"error", err)
		return nil, shared.DataAccessError{Operation: "daily balances", Cause: err}
	}
	if records == nil {
		records = []snapshot.DailyBalanceRecord{}
	}
	return records, nil
}

// storeError keeps domain outcomes and classifies everything else as a data access failure
func (m *Manager) storeError(operation string, err error) error {
	if shared.IsDomainOutcome(err) || errors.Is(err, shared.DataAccessError{}) {
		return err
	}
	return shared.DataAccessError{Operation: operation, Cause: err}
}

func (m *Manager) publish(ctx context.Context, eventType shared.AccountEventType, acc *account.Account, attrs map[string]string) {
	if m.events == nil {
		return
	}
	event := shared.NewAccountEvent(eventType)
	event.AccountID = acc.ID
	event.CustomerID = acc.CustomerID
	event.AccountNumber = acc.AccountNumber
	event.ProductType = string(acc.ProductType)
	event.CorrelationID = shared.CorrelationIDFromContext(ctx)
	event.Attributes = attrs

	if err := m.events.Publish(ctx, event.Key(), event); err != nil {
		m.logger.Warn("Failed to publish account event",
			"event_type", string(eventType),
			"account_id", acc.ID,
			"error", err)
	}
}
