package account

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bancario/account-service/internal/domain/shared"
)

// ProductType separates deposit products from credit products
type ProductType string

const (
	ProductPassive ProductType = "PASSIVE"
	ProductActive  ProductType = "ACTIVE"
)

func (p ProductType) Valid() bool {
	return p == ProductPassive || p == ProductActive
}

// AccountType is the deposit account flavour, meaningful only for PASSIVE products
type AccountType string

const (
	AccountSavings   AccountType = "SAVINGS"
	AccountCurrent   AccountType = "CURRENT"
	AccountFixedTerm AccountType = "FIXED_TERM"
)

// IsBankType reports whether t is subject to the non-negative opening balance rule
func (t AccountType) IsBankType() bool {
	switch t {
	case AccountSavings, AccountCurrent, AccountFixedTerm:
		return true
	}
	return false
}

// CreditType is the credit product flavour, meaningful only for ACTIVE products
type CreditType string

const (
	CreditPersonal   CreditType = "PERSONAL"
	CreditBusiness   CreditType = "BUSINESS"
	CreditCreditCard CreditType = "CREDIT_CARD"
)

func (c CreditType) Valid() bool {
	switch c {
	case CreditPersonal, CreditBusiness, CreditCreditCard:
		return true
	}
	return false
}

// Status is the lifecycle state; accounts are never physically deleted
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Account represents a deposit account or a credit product
type Account struct {
	ID                         string
	CustomerID                 string
	AccountNumber              string
	ProductType                ProductType
	AccountType                AccountType
	CreditType                 CreditType
	Balance                    decimal.Decimal // cash balance, or credit line for ACTIVE
	AmountUsed                 decimal.Decimal // consumed credit, ACTIVE only
	Status                     Status
	OpeningDate                time.Time
	SpecificDepositDate        *time.Time
	MonthlyMovements           *int
	PaymentDayOfMonth          *int
	OverdueAmount              decimal.Decimal
	MaintenanceFeeAmount       decimal.Decimal
	RequiredDailyAverage       decimal.Decimal
	FreeTransactionLimit       *int
	TransactionFeeAmount       *decimal.Decimal
	CurrentMonthlyTransactions *int
	Holders                    []string
	Signatories                []string
	UpdatedAt                  time.Time
}

// TransactionStatus is the fee configuration consulted by the transaction service
type TransactionStatus struct {
	FreeTransactionLimit       int
	CurrentMonthlyTransactions int
	TransactionFeeAmount       decimal.Decimal
}

// NewAccount builds an ACTIVE account from an accepted request
func NewAccount(req *CreationRequest, number string, attrs Attributes, now time.Time) *Account {
	acc := &Account{
		CustomerID:                 req.CustomerID,
		AccountNumber:              number,
		ProductType:                req.ProductType,
		AccountType:                req.AccountType,
		CreditType:                 req.CreditType,
		Status:                     StatusActive,
		OpeningDate:                now,
		SpecificDepositDate:        req.SpecificDepositDate,
		PaymentDayOfMonth:          req.PaymentDayOfMonth,
		OverdueAmount:              decimal.Zero,
		MaintenanceFeeAmount:       attrs.MaintenanceFeeAmount,
		RequiredDailyAverage:       attrs.RequiredDailyAverage,
		FreeTransactionLimit:       attrs.FreeTransactionLimit,
		TransactionFeeAmount:       attrs.TransactionFeeAmount,
		CurrentMonthlyTransactions: attrs.CurrentMonthlyTransactions,
		Holders:                    append([]string(nil), req.Holders...),
		Signatories:                append([]string(nil), req.Signatories...),
		UpdatedAt:                  now,
	}
	if req.Balance != nil {
		acc.Balance = *req.Balance
	}
	if req.AmountUsed != nil {
		acc.AmountUsed = *req.AmountUsed
	}
	return acc
}

// ValidateClosure checks the terminal-balance invariant for the product type
func (a *Account) ValidateClosure() error {
	switch a.ProductType {
	case ProductPassive:
		if !a.Balance.IsZero() {
			return shared.ValidationError{Reason: "cannot close a passive account with a non-zero balance"}
		}
	case ProductActive:
		if !a.AmountUsed.IsZero() {
			return shared.ValidationError{Reason: "cannot close an active account with a non-zero amount used"}
		}
	}
	return nil
}

// Close marks the account INACTIVE once the terminal-balance invariant holds.
// Closing an already inactive account re-checks the invariant and succeeds again.
func (a *Account) Close(now time.Time) error {
	if err := a.ValidateClosure(); err != nil {
		return err
	}
	a.Status = StatusInactive
	a.UpdatedAt = now
	return nil
}

// OverwriteBalances replaces balance and amount used unconditionally
func (a *Account) OverwriteBalances(balance, amountUsed decimal.Decimal, now time.Time) {
	a.Balance = balance
	a.AmountUsed = amountUsed
	a.UpdatedAt = now
}

// TransactionStatus returns the transaction limits; they exist only for deposit accounts
func (a *Account) TransactionStatus() (*TransactionStatus, error) {
	if a.ProductType != ProductPassive {
		return nil, shared.BusinessRuleError{Reason: "only passive accounts have transaction limits"}
	}
	status := &TransactionStatus{TransactionFeeAmount: decimal.Zero}
	if a.FreeTransactionLimit != nil {
		status.FreeTransactionLimit = *a.FreeTransactionLimit
	}
	if a.CurrentMonthlyTransactions != nil {
		status.CurrentMonthlyTransactions = *a.CurrentMonthlyTransactions
	}
	if a.TransactionFeeAmount != nil {
		status.TransactionFeeAmount = *a.TransactionFeeAmount
	}
	return status, nil
}
