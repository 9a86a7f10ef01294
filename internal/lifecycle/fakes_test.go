package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/bancario/account-service/internal/domain/account"
	"github.com/bancario/account-service/internal/domain/customer"
	"github.com/bancario/account-service/internal/domain/snapshot"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// memoryStore is an in-memory account.Repository. The counter update holds the
// lock for the whole read-modify-write, like a storage-level $inc.
type memoryStore struct {
	mu       sync.Mutex
	accounts map[string]*account.Account
	seq      int
	failWith error
	// duplicates makes the next n inserts fail with a number collision
	duplicates int
	counted    map[string]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{accounts: make(map[string]*account.Account)}
}

func clone(acc *account.Account) *account.Account {
	c := *acc
	if acc.CurrentMonthlyTransactions != nil {
		v := *acc.CurrentMonthlyTransactions
		c.CurrentMonthlyTransactions = &v
	}
	return &c
}

func (s *memoryStore) Insert(_ context.Context, acc *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if s.duplicates > 0 {
		s.duplicates--
		return account.ErrDuplicateAccountNumber{AccountNumber: acc.AccountNumber}
	}
	for _, existing := range s.accounts {
		if existing.AccountNumber == acc.AccountNumber {
			return account.ErrDuplicateAccountNumber{AccountNumber: acc.AccountNumber}
		}
	}
	s.seq++
	acc.ID = fmt.Sprintf("%024x", s.seq)
	s.accounts[acc.ID] = clone(acc)
	return nil
}

func (s *memoryStore) FindByID(_ context.Context, id string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	acc, ok := s.accounts[id]
	if !ok {
		return nil, account.NotFound(id)
	}
	return clone(acc), nil
}

func (s *memoryStore) FindByAccountNumber(_ context.Context, number string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.AccountNumber == number {
			return clone(acc), nil
		}
	}
	return nil, account.NotFound(number)
}

func (s *memoryStore) FindByCustomerID(_ context.Context, customerID string) ([]*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]*account.Account, 0)
	for _, acc := range s.accounts {
		if acc.CustomerID == customerID {
			result = append(result, clone(acc))
		}
	}
	return result, nil
}

func (s *memoryStore) FindAll(_ context.Context) ([]*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]*account.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		result = append(result, clone(acc))
	}
	return result, nil
}

func (s *memoryStore) CountByCustomerAndAccountType(_ context.Context, customerID string, accountType account.AccountType) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, acc := range s.accounts {
		if acc.CustomerID == customerID && acc.AccountType == accountType {
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) CountByCustomerAndProductType(_ context.Context, customerID string, productType account.ProductType) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, acc := range s.accounts {
		if acc.CustomerID == customerID && acc.ProductType == productType {
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) HasActiveCreditCard(_ context.Context, customerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.CustomerID == customerID && acc.ProductType == account.ProductActive &&
			acc.CreditType == account.CreditCreditCard && acc.Status == account.StatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) IncrementMonthlyCounter(_ context.Context, id, movementID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return 0, s.failWith
	}
	acc, ok := s.accounts[id]
	if !ok {
		return 0, nil
	}
	if movementID != "" {
		key := id + "/" + movementID
		if s.counted[key] {
			return 1, nil
		}
		if s.counted == nil {
			s.counted = make(map[string]bool)
		}
		s.counted[key] = true
	}
	v := 1
	if acc.CurrentMonthlyTransactions != nil {
		v = *acc.CurrentMonthlyTransactions + 1
	}
	acc.CurrentMonthlyTransactions = &v
	return 1, nil
}

// UpdateState copies only the state fields, matching the $set of the Mongo store
func (s *memoryStore) UpdateState(_ context.Context, acc *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	stored, ok := s.accounts[acc.ID]
	if !ok {
		return account.NotFound(acc.ID)
	}
	stored.Balance = acc.Balance
	stored.AmountUsed = acc.AmountUsed
	stored.Status = acc.Status
	stored.UpdatedAt = acc.UpdatedAt
	return nil
}

// fakeDirectory serves fixed profiles and counts lookups
type fakeDirectory struct {
	mu       sync.Mutex
	profiles map[string]*customer.Profile
	err      error
	calls    int
}

func (d *fakeDirectory) GetCustomerByID(_ context.Context, id string) (*customer.Profile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	p, ok := d.profiles[id]
	if !ok {
		return nil, customer.ErrCustomerNotFound
	}
	return p, nil
}

func (d *fakeDirectory) lookups() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) InsertBatch(ctx context.Context, snapshots []snapshot.BalanceSnapshot) (int64, error) {
	args := m.Called(ctx, snapshots)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSnapshotRepository) FindByCustomerAndDateRange(ctx context.Context, customerID string, start, end time.Time) ([]snapshot.DailyBalanceRecord, error) {
	args := m.Called(ctx, customerID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]snapshot.DailyBalanceRecord), args.Error(1)
}

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockMessagePublisher) Close() error {
	return m.Called().Error(0)
}

type fixedNumbers struct {
	numbers []string
	i       int
}

func (f *fixedNumbers) Generate(account.ProductType, account.AccountType) string {
	n := f.numbers[f.i%len(f.numbers)]
	f.i++
	return n
}
