package account

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bancario/account-service/internal/domain/shared"
)

func intPtr(v int) *int { return &v }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestNewAccount(t *testing.T) {
	t.Run("PassiveAccountCarriesAttributes", func(t *testing.T) {
		now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		req := &CreationRequest{
			CustomerID:  "cust-1",
			ProductType: ProductPassive,
			AccountType: AccountSavings,
			Balance:     decPtr("150.25"),
			Holders:     []string{"h1"},
		}
		attrs := Attributes{
			MaintenanceFeeAmount:       decimal.RequireFromString("10.00"),
			RequiredDailyAverage:       decimal.Zero,
			FreeTransactionLimit:       intPtr(4),
			TransactionFeeAmount:       decPtr("0.50"),
			CurrentMonthlyTransactions: intPtr(0),
		}

		acc := NewAccount(req, "0200-12345678", attrs, now)

		assert.Equal(t, "cust-1", acc.CustomerID)
		assert.Equal(t, "0200-12345678", acc.AccountNumber)
		assert.Equal(t, StatusActive, acc.Status)
		assert.Equal(t, now, acc.OpeningDate)
		assert.True(t, acc.Balance.Equal(decimal.RequireFromString("150.25")))
		assert.True(t, acc.AmountUsed.IsZero())
		require.NotNil(t, acc.FreeTransactionLimit)
		assert.Equal(t, 4, *acc.FreeTransactionLimit)
		require.NotNil(t, acc.CurrentMonthlyTransactions)
		assert.Equal(t, 0, *acc.CurrentMonthlyTransactions)
		assert.Equal(t, []string{"h1"}, acc.Holders)
	})

	t.Run("HoldersAreCopied", func(t *testing.T) {
		holders := []string{"a"}
		req := &CreationRequest{ProductType: ProductActive, Balance: decPtr("0"), Holders: holders}

		acc := NewAccount(req, "0300-10000000", Attributes{}, time.Now())
		holders[0] = "changed"

		assert.Equal(t, "a", acc.Holders[0])
	})
}

func TestAccount_Close(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		account Account
		wantErr bool
	}{
		{"PassiveZeroBalance", Account{ProductType: ProductPassive, Balance: decimal.Zero}, false},
		{"PassiveNonZeroBalance", Account{ProductType: ProductPassive, Balance: decimal.RequireFromString("0.01")}, true},
		{"ActiveZeroAmountUsed", Account{ProductType: ProductActive, Balance: decimal.RequireFromString("5000"), AmountUsed: decimal.Zero}, false},
		{"ActiveOutstandingAmountUsed", Account{ProductType: ProductActive, AmountUsed: decimal.RequireFromString("12.00")}, true},
		{"AlreadyInactiveStillChecked", Account{ProductType: ProductPassive, Status: StatusInactive, Balance: decimal.Zero}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := tt.account
			acc.Status = StatusActive
			if tt.account.Status != "" {
				acc.Status = tt.account.Status
			}

			err := acc.Close(now)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, shared.ValidationError{})
				assert.NotEqual(t, StatusInactive, acc.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusInactive, acc.Status)
			assert.Equal(t, now, acc.UpdatedAt)
		})
	}
}

func TestAccount_OverwriteBalances(t *testing.T) {
	acc := &Account{ProductType: ProductPassive, Balance: decimal.RequireFromString("10")}

	acc.OverwriteBalances(decimal.RequireFromString("-3.5"), decimal.RequireFromString("1"), time.Now())

	assert.True(t, acc.Balance.Equal(decimal.RequireFromString("-3.5")), "no invariant check is applied")
	assert.True(t, acc.AmountUsed.Equal(decimal.RequireFromString("1")))
}

func TestAccount_TransactionStatus(t *testing.T) {
	t.Run("PassiveReturnsLimits", func(t *testing.T) {
		acc := &Account{
			ProductType:                ProductPassive,
			FreeTransactionLimit:       intPtr(4),
			CurrentMonthlyTransactions: intPtr(2),
			TransactionFeeAmount:       decPtr("0.50"),
		}

		status, err := acc.TransactionStatus()

		require.NoError(t, err)
		assert.Equal(t, 4, status.FreeTransactionLimit)
		assert.Equal(t, 2, status.CurrentMonthlyTransactions)
		assert.True(t, status.TransactionFeeAmount.Equal(decimal.RequireFromString("0.5")))
	})

	t.Run("ActiveIsRejected", func(t *testing.T) {
		acc := &Account{ProductType: ProductActive}

		status, err := acc.TransactionStatus()

		assert.Nil(t, status)
		assert.ErrorIs(t, err, shared.BusinessRuleError{})
	})
}
