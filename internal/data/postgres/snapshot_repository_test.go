package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bancario/account-service/internal/domain/snapshot"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestSnapshotRepository_InsertBatch(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &SnapshotRepository{querier: mock, logger: newTestLogger()}
	date := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	batch := []snapshot.BalanceSnapshot{
		{ProductID: "a1", CustomerID: "c1", AccountType: "SAVINGS", ProductType: "PASSIVE", Date: date,
			BalanceEOD: decimal.RequireFromString("100.50"), AmountUsedEOD: decimal.Zero},
		{ProductID: "a2", CustomerID: "c1", ProductType: "ACTIVE", Date: date,
			BalanceEOD: decimal.RequireFromString("5000"), AmountUsedEOD: decimal.RequireFromString("250.25")},
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectCopyFrom(pgx.Identifier{"balance_snapshots"}, snapshotColumns).WillReturnResult(2)

		n, err := repo.InsertBatch(ctx, batch)

		assert.NoError(t, err)
		assert.Equal(t, int64(2), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		expectedErr := errors.New("duplicate key value violates unique constraint")
		mock.ExpectCopyFrom(pgx.Identifier{"balance_snapshots"}, snapshotColumns).WillReturnError(expectedErr)

		n, err := repo.InsertBatch(ctx, batch)

		assert.Error(t, err)
		assert.Zero(t, n)
		assert.Contains(t, err.Error(), "failed to insert balance snapshots")
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty batch does not touch the database", func(t *testing.T) {
		n, err := repo.InsertBatch(ctx, nil)

		assert.NoError(t, err)
		assert.Zero(t, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSnapshotRepository_FindByCustomerAndDateRange(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &SnapshotRepository{querier: mock, logger: newTestLogger()}
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC)

	query := `
		SELECT product_id, COALESCE\(account_type, ''\), product_type, snapshot_date, balance_eod::text, amount_used_eod::text
		FROM balance_snapshots
		WHERE customer_id = \$1 AND snapshot_date BETWEEN \$2 AND \$3
		ORDER BY snapshot_date ASC, product_id ASC
	`
	columns := []string{"product_id", "account_type", "product_type", "snapshot_date", "balance_eod", "amount_used_eod"}

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows(columns).
			AddRow("a1", "SAVINGS", "PASSIVE", start, "100.50", "0").
			AddRow("a2", "", "ACTIVE", end, "5000.00", "250.25")
		mock.ExpectQuery(query).WithArgs("c1", start, end).WillReturnRows(rows)

		records, err := repo.FindByCustomerAndDateRange(ctx, "c1", start, end)

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "a1", records[0].ProductID)
		assert.Equal(t, start, records[0].Date)
		assert.True(t, records[0].BalanceEOD.Equal(decimal.RequireFromString("100.5")))
		assert.Equal(t, "", records[1].AccountType)
		assert.True(t, records[1].AmountUsedEOD.Equal(decimal.RequireFromString("250.25")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows yields empty slice", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("c2", start, end).WillReturnRows(pgxmock.NewRows(columns))

		records, err := repo.FindByCustomerAndDateRange(ctx, "c2", start, end)

		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure", func(t *testing.T) {
		expectedErr := errors.New("connection refused")
		mock.ExpectQuery(query).WithArgs("c1", start, end).WillReturnError(expectedErr)

		records, err := repo.FindByCustomerAndDateRange(ctx, "c1", start, end)

		assert.Nil(t, records)
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
