package account

import (
	"github.com/shopspring/decimal"

	"github.com/bancario/account-service/internal/domain/customer"
)

// FeeSchedule holds the fee constants applied at account opening
type FeeSchedule struct {
	MaintenanceFee       decimal.Decimal
	RequiredDailyAverage decimal.Decimal
	FreeTransactionLimit int
	TransactionFee       decimal.Decimal

	VIPSavingsRequiredDailyAverage decimal.Decimal
	VIPSavingsMaintenanceFee       decimal.Decimal
	VIPSavingsFreeTransactionLimit int
	VIPSavingsTransactionFee       decimal.Decimal

	PYMECurrentFreeTransactionLimit int
	PYMECurrentTransactionFee       decimal.Decimal
}

func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		MaintenanceFee:       decimal.RequireFromString("10.00"),
		RequiredDailyAverage: decimal.Zero,
		FreeTransactionLimit: 4,
		TransactionFee:       decimal.RequireFromString("0.50"),

		VIPSavingsRequiredDailyAverage: decimal.RequireFromString("1000.00"),
		VIPSavingsMaintenanceFee:       decimal.Zero,
		VIPSavingsFreeTransactionLimit: 999,
		VIPSavingsTransactionFee:       decimal.Zero,

		PYMECurrentFreeTransactionLimit: 100,
		PYMECurrentTransactionFee:       decimal.RequireFromString("0.10"),
	}
}

// Attributes are the segment dependent values set on a new account
type Attributes struct {
	MaintenanceFeeAmount       decimal.Decimal
	RequiredDailyAverage       decimal.Decimal
	FreeTransactionLimit       *int
	TransactionFeeAmount       *decimal.Decimal
	CurrentMonthlyTransactions *int
}

// AttributeAssigner computes opening attributes from an immutable fee schedule
type AttributeAssigner struct {
	schedule FeeSchedule
}

func NewAttributeAssigner(schedule FeeSchedule) *AttributeAssigner {
	return &AttributeAssigner{schedule: schedule}
}

// Assign is pure: the same request and profile always give the same attributes
func (a *AttributeAssigner) Assign(req *CreationRequest, profile *customer.Profile) Attributes {
	s := a.schedule
	attrs := Attributes{
		MaintenanceFeeAmount: s.MaintenanceFee,
		RequiredDailyAverage: s.RequiredDailyAverage,
	}
	if req.ProductType != ProductPassive {
		return attrs
	}

	limit := s.FreeTransactionLimit
	fee := s.TransactionFee
	counter := 0

	switch {
	case profile.Segment == customer.SegmentVIP && req.AccountType == AccountSavings:
		attrs.RequiredDailyAverage = s.VIPSavingsRequiredDailyAverage
		attrs.MaintenanceFeeAmount = s.VIPSavingsMaintenanceFee
		limit = s.VIPSavingsFreeTransactionLimit
		fee = s.VIPSavingsTransactionFee
	case profile.Segment == customer.SegmentPYME && req.AccountType == AccountCurrent:
		limit = s.PYMECurrentFreeTransactionLimit
		fee = s.PYMECurrentTransactionFee
	}

	attrs.FreeTransactionLimit = &limit
	attrs.TransactionFeeAmount = &fee
	attrs.CurrentMonthlyTransactions = &counter
	return attrs
}
