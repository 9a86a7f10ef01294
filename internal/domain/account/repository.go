package account

import (
	"context"

	"github.com/bancario/account-service/internal/domain/shared"
)

// Repository defines account persistence operations
type Repository interface {
	Insert(ctx context.Context, account *Account) error
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByAccountNumber(ctx context.Context, number string) (*Account, error)
	FindByCustomerID(ctx context.Context, customerID string) ([]*Account, error)
	FindAll(ctx context.Context) ([]*Account, error)
	CountByCustomerAndAccountType(ctx context.Context, customerID string, accountType AccountType) (int64, error)
	CountByCustomerAndProductType(ctx context.Context, customerID string, productType ProductType) (int64, error)
	HasActiveCreditCard(ctx context.Context, customerID string) (bool, error)

	// IncrementMonthlyCounter atomically adds one to the monthly transaction counter
	// and reports how many documents matched. A non-empty movementID is counted at
	// most once per account; a repeat matches without incrementing.
	IncrementMonthlyCounter(ctx context.Context, id, movementID string) (int64, error)

	// UpdateState persists balance, amount used, status and updated_at only.
	// Other fields, the monthly counter included, are left as stored.
	UpdateState(ctx context.Context, account *Account) error
}

// ErrDuplicateAccountNumber indicates an account number uniqueness violation
type ErrDuplicateAccountNumber struct {
	AccountNumber string
}

func (e ErrDuplicateAccountNumber) Error() string {
	return "account number already exists: " + e.AccountNumber
}

func (e ErrDuplicateAccountNumber) Is(target error) bool {
	_, ok := target.(ErrDuplicateAccountNumber)
	return ok
}

// NotFound builds the error returned when an account lookup misses
func NotFound(key string) error {
	return shared.NotFoundError{Resource: "account", ID: key}
}
