// Package postgres provides PostgreSQL implementations of the domain repositories.
// The analytics store only holds end-of-day balance snapshots.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/bancario/account-service/internal/domain/snapshot"
	"github.com/bancario/account-service/internal/platform/persistence"
)

const snapshotTable = "balance_snapshots"

var snapshotColumns = []string{
	"product_id",
	"customer_id",
	"account_type",
	"product_type",
	"snapshot_date",
	"balance_eod",
	"amount_used_eod",
}

// SnapshotRepository implements the snapshot.Repository interface for PostgreSQL
type SnapshotRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewSnapshotRepository creates a new PostgreSQL snapshot repository
func NewSnapshotRepository(logger *slog.Logger, db *persistence.PostgresDB) snapshot.Repository {
	return &SnapshotRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// InsertBatch writes every snapshot with a single COPY. A conflicting row fails the
// whole statement, nothing is partially written.
func (r *SnapshotRepository) InsertBatch(ctx context.Context, snapshots []snapshot.BalanceSnapshot) (int64, error) {
	if len(snapshots) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(snapshots))
	for _, s := range snapshots {
		var accountType any
		if s.AccountType != "" {
			accountType = s.AccountType
		}
		rows = append(rows, []any{
			s.ProductID,
			s.CustomerID,
			accountType,
			s.ProductType,
			s.Date,
			toNumeric(s.BalanceEOD),
			toNumeric(s.AmountUsedEOD),
		})
	}

	n, err := r.querier.CopyFrom(ctx, pgx.Identifier{snapshotTable}, snapshotColumns, pgx.CopyFromRows(rows))
	if err != nil {
		r.logger.Error("Failed to insert balance snapshots",
			"count", len(snapshots),
			"error", err)
		return 0, fmt.Errorf("failed to insert balance snapshots: %w", err)
	}

	return n, nil
}

// FindByCustomerAndDateRange returns the customer's snapshots between start and end
// inclusive, oldest first. No rows yields an empty, non-nil slice.
func (r *SnapshotRepository) FindByCustomerAndDateRange(ctx context.Context, customerID string, start, end time.Time) ([]snapshot.DailyBalanceRecord, error) {
	query := `
		SELECT product_id, COALESCE(account_type, ''), product_type, snapshot_date, balance_eod::text, amount_used_eod::text
		FROM balance_snapshots
		WHERE customer_id = $1 AND snapshot_date BETWEEN $2 AND $3
		ORDER BY snapshot_date ASC, product_id ASC
	`

	rows, err := r.querier.Query(ctx, query, customerID, start, end)
	if err != nil {
		r.logger.Error("Failed to query balance snapshots",
			"customer_id", customerID,
			"error", err)
		return nil, fmt.Errorf("failed to query balance snapshots: %w", err)
	}
	defer rows.Close()

	records := make([]snapshot.DailyBalanceRecord, 0)
	for rows.Next() {
		var rec snapshot.DailyBalanceRecord
		var balance, amountUsed string
		if err := rows.Scan(&rec.ProductID, &rec.AccountType, &rec.ProductType, &rec.Date, &balance, &amountUsed); err != nil {
			r.logger.Error("Failed to scan balance snapshot", "error", err)
			return nil, fmt.Errorf("failed to scan balance snapshot: %w", err)
		}
		if rec.BalanceEOD, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("failed to parse balance_eod %q: %w", balance, err)
		}
		if rec.AmountUsedEOD, err = decimal.NewFromString(amountUsed); err != nil {
			return nil, fmt.Errorf("failed to parse amount_used_eod %q: %w", amountUsed, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating balance snapshots", "error", err)
		return nil, fmt.Errorf("error iterating balance snapshots: %w", err)
	}

	return records, nil
}

func toNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}
