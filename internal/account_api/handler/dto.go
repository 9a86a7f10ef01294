package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bancario/account-service/internal/domain/account"
	"github.com/bancario/account-service/internal/domain/shared"
)

// CreateAccountRequest is the body of POST /accounts
type CreateAccountRequest struct {
	CustomerID          string           `json:"customerId" binding:"required"`
	ProductType         string           `json:"productType" binding:"required,oneof=PASSIVE ACTIVE"`
	AccountType         string           `json:"accountType,omitempty"`
	CreditType          string           `json:"creditType,omitempty"`
	Balance             *decimal.Decimal `json:"balance"`
	AmountUsed          *decimal.Decimal `json:"amountUsed,omitempty"`
	PaymentDayOfMonth   *int             `json:"paymentDayOfMonth,omitempty"`
	SpecificDepositDate string           `json:"specificDepositDate,omitempty"`
	Holders             []string         `json:"holders,omitempty"`
	Signatories         []string         `json:"signatories,omitempty"`
}

// toCreationRequest converts the body; only the deposit date can fail to parse
func (r *CreateAccountRequest) toCreationRequest() (*account.CreationRequest, error) {
	req := &account.CreationRequest{
		CustomerID:        r.CustomerID,
		ProductType:       account.ProductType(r.ProductType),
		AccountType:       account.AccountType(r.AccountType),
		CreditType:        account.CreditType(r.CreditType),
		Balance:           r.Balance,
		AmountUsed:        r.AmountUsed,
		PaymentDayOfMonth: r.PaymentDayOfMonth,
		Holders:           r.Holders,
		Signatories:       r.Signatories,
	}
	if r.SpecificDepositDate != "" {
		date, err := parseDate(r.SpecificDepositDate)
		if err != nil {
			return nil, shared.ValidationError{Reason: "specificDepositDate must be a date (YYYY-MM-DD)"}
		}
		req.SpecificDepositDate = &date
	}
	return req, nil
}

// UpdateBalanceRequest is the body of PUT /accounts/:id/balance
type UpdateBalanceRequest struct {
	Balance    *decimal.Decimal `json:"balance" binding:"required"`
	AmountUsed *decimal.Decimal `json:"amountUsed,omitempty"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID                         string           `json:"id"`
	CustomerID                 string           `json:"customerId"`
	AccountNumber              string           `json:"accountNumber"`
	ProductType                string           `json:"productType"`
	AccountType                string           `json:"accountType,omitempty"`
	CreditType                 string           `json:"creditType,omitempty"`
	Balance                    decimal.Decimal  `json:"balance"`
	AmountUsed                 decimal.Decimal  `json:"amountUsed"`
	Status                     string           `json:"status"`
	OpeningDate                string           `json:"openingDate"`
	SpecificDepositDate        string           `json:"specificDepositDate,omitempty"`
	PaymentDayOfMonth          *int             `json:"paymentDayOfMonth,omitempty"`
	OverdueAmount              decimal.Decimal  `json:"overdueAmount"`
	MaintenanceFeeAmount       decimal.Decimal  `json:"maintenanceFeeAmount"`
	RequiredDailyAverage       decimal.Decimal  `json:"requiredDailyAverage"`
	FreeTransactionLimit       *int             `json:"freeTransactionLimit,omitempty"`
	TransactionFeeAmount       *decimal.Decimal `json:"transactionFeeAmount,omitempty"`
	CurrentMonthlyTransactions *int             `json:"currentMonthlyTransactions,omitempty"`
	Holders                    []string         `json:"holders,omitempty"`
	Signatories                []string         `json:"signatories,omitempty"`
	UpdatedAt                  string           `json:"updatedAt"`
}

// TransactionStatusResponse is consulted by the transaction service before charging fees
type TransactionStatusResponse struct {
	FreeTransactionLimit       int             `json:"freeTransactionLimit"`
	CurrentMonthlyTransactions int             `json:"currentMonthlyTransactions"`
	TransactionFeeAmount       decimal.Decimal `json:"transactionFeeAmount"`
}

func mapAccountToResponse(acc *account.Account) AccountResponse {
	resp := AccountResponse{
		ID:                         acc.ID,
		CustomerID:                 acc.CustomerID,
		AccountNumber:              acc.AccountNumber,
		ProductType:                string(acc.ProductType),
		AccountType:                string(acc.AccountType),
		CreditType:                 string(acc.CreditType),
		Balance:                    acc.Balance,
		AmountUsed:                 acc.AmountUsed,
		Status:                     string(acc.Status),
		OpeningDate:                acc.OpeningDate.Format(time.RFC3339),
		PaymentDayOfMonth:          acc.PaymentDayOfMonth,
		OverdueAmount:              acc.OverdueAmount,
		MaintenanceFeeAmount:       acc.MaintenanceFeeAmount,
		RequiredDailyAverage:       acc.RequiredDailyAverage,
		FreeTransactionLimit:       acc.FreeTransactionLimit,
		TransactionFeeAmount:       acc.TransactionFeeAmount,
		CurrentMonthlyTransactions: acc.CurrentMonthlyTransactions,
		Holders:                    acc.Holders,
		Signatories:                acc.Signatories,
		UpdatedAt:                  acc.UpdatedAt.Format(time.RFC3339),
	}
	if acc.SpecificDepositDate != nil {
		resp.SpecificDepositDate = acc.SpecificDepositDate.Format(time.DateOnly)
	}
	return resp
}

func mapAccountsToResponse(accounts []*account.Account) []AccountResponse {
	resp := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		resp = append(resp, mapAccountToResponse(acc))
	}
	return resp
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
