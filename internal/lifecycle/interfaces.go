// Package lifecycle implements account opening, closure, balance overwrite,
// transaction counters and the daily balance history query.
package lifecycle

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bancario/account-service/internal/domain/account"
	"github.com/bancario/account-service/internal/domain/snapshot"
)

// Service defines the account lifecycle operations exposed over HTTP and Kafka
type Service interface {
	// CreateAccount validates, checks eligibility against the customer's segment,
	// assigns attributes and persists a new ACTIVE account
	CreateAccount(ctx context.Context, req *account.CreationRequest) (*account.Account, error)

	GetAccountByID(ctx context.Context, id string) (*account.Account, error)
	GetAccountByNumber(ctx context.Context, number string) (*account.Account, error)
	ListAccountsByCustomer(ctx context.Context, customerID string) ([]*account.Account, error)

	// CloseAccount marks the account INACTIVE when its terminal balance is zero
	CloseAccount(ctx context.Context, id string) error

	// UpdateBalance overwrites balance and amount used without any invariant check
	UpdateBalance(ctx context.Context, id string, balance, amountUsed decimal.Decimal) (*account.Account, error)

	// GetTransactionStatus is only defined for PASSIVE accounts
	GetTransactionStatus(ctx context.Context, id string) (*account.TransactionStatus, error)

	// IncrementTransactionCounter atomically adds one to the monthly counter
	IncrementTransactionCounter(ctx context.Context, id string) error

	// RecordMovement counts a movement against the monthly counter once per transaction ID
	RecordMovement(ctx context.Context, id, transactionID string) error

	// GetDailyBalances returns the customer's snapshots between start and end inclusive, oldest first
	GetDailyBalances(ctx context.Context, customerID string, start, end time.Time) ([]snapshot.DailyBalanceRecord, error)
}

// NumberSource generates candidate account numbers
type NumberSource interface {
	Generate(productType account.ProductType, accountType account.AccountType) string
}
