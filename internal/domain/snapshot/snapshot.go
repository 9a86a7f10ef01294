package snapshot

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bancario/account-service/internal/domain/account"
)

// BalanceSnapshot is the immutable end-of-day balance of one product
type BalanceSnapshot struct {
	ProductID     string
	CustomerID    string
	AccountType   string
	ProductType   string
	Date          time.Time
	BalanceEOD    decimal.Decimal
	AmountUsedEOD decimal.Decimal
}

// FromAccount captures acc at date. Deposit accounts record a zero amount used.
func FromAccount(acc *account.Account, date time.Time) BalanceSnapshot {
	s := BalanceSnapshot{
		ProductID:     acc.ID,
		CustomerID:    acc.CustomerID,
		AccountType:   string(acc.AccountType),
		ProductType:   string(acc.ProductType),
		Date:          DateOf(date),
		BalanceEOD:    acc.Balance,
		AmountUsedEOD: decimal.Zero,
	}
	if acc.ProductType == account.ProductActive {
		s.AmountUsedEOD = acc.AmountUsed
	}
	return s
}

// DateOf returns the calendar date of t, in t's location, as midnight UTC
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DailyBalanceRecord is the read model returned by the history query
type DailyBalanceRecord struct {
	ProductID     string          `json:"productId"`
	AccountType   string          `json:"accountType,omitempty"`
	ProductType   string          `json:"productType"`
	Date          time.Time       `json:"date"`
	BalanceEOD    decimal.Decimal `json:"balanceEod"`
	AmountUsedEOD decimal.Decimal `json:"amountUsedEod"`
}

// Repository persists snapshots for downstream analytics
type Repository interface {
	// InsertBatch writes all snapshots in one operation
	InsertBatch(ctx context.Context, snapshots []BalanceSnapshot) (int64, error)

	// FindByCustomerAndDateRange returns records with start <= date <= end, ascending by date
	FindByCustomerAndDateRange(ctx context.Context, customerID string, start, end time.Time) ([]DailyBalanceRecord, error)
}
