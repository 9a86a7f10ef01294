package account

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bancario/account-service/internal/domain/shared"
)

// CreationRequest is the transient input of account opening
type CreationRequest struct {
	CustomerID          string
	ProductType         ProductType
	AccountType         AccountType
	CreditType          CreditType
	Balance             *decimal.Decimal
	AmountUsed          *decimal.Decimal
	PaymentDayOfMonth   *int
	SpecificDepositDate *time.Time
	Holders             []string
	Signatories         []string
}

// ValidateCreationRequest performs the checks that need no external call.
// It must pass before the customer directory is consulted.
func ValidateCreationRequest(req *CreationRequest) error {
	if req == nil {
		return shared.ValidationError{Reason: "request is required"}
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		return shared.ValidationError{Reason: "customerId is required"}
	}
	if !req.ProductType.Valid() {
		return shared.ValidationError{Reason: "productType must be PASSIVE or ACTIVE"}
	}
	if req.Balance == nil {
		return shared.ValidationError{Reason: "initial balance is required"}
	}
	if req.AccountType.IsBankType() && req.Balance.IsNegative() {
		return shared.ValidationError{Reason: "initial balance cannot be negative for bank account types"}
	}
	if req.AccountType == AccountFixedTerm && req.SpecificDepositDate == nil {
		return shared.ValidationError{Reason: "fixed term accounts require a specific deposit date"}
	}
	if req.AmountUsed != nil && req.AmountUsed.IsNegative() {
		return shared.ValidationError{Reason: "amountUsed cannot be negative"}
	}
	if req.PaymentDayOfMonth != nil && (*req.PaymentDayOfMonth < 1 || *req.PaymentDayOfMonth > 31) {
		return shared.ValidationError{Reason: "paymentDayOfMonth must be between 1 and 31"}
	}
	return nil
}
