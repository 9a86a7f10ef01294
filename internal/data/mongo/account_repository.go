package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bancario/account-service/internal/domain/account"
	"github.com/bancario/account-service/internal/domain/shared"
)

const (
	// AccountCollectionName is the name of the accounts collection in MongoDB
	AccountCollectionName = "accounts"
)

type accountDocument struct {
	ID                         primitive.ObjectID    `bson:"_id,omitempty"`
	CustomerID                 string                `bson:"customer_id"`
	AccountNumber              string                `bson:"account_number"`
	ProductType                string                `bson:"product_type"`
	AccountType                string                `bson:"account_type,omitempty"`
	CreditType                 string                `bson:"credit_type,omitempty"`
	Balance                    primitive.Decimal128  `bson:"balance"`
	AmountUsed                 primitive.Decimal128  `bson:"amount_used"`
	Status                     string                `bson:"status"`
	OpeningDate                time.Time             `bson:"opening_date"`
	SpecificDepositDate        *time.Time            `bson:"specific_deposit_date,omitempty"`
	MonthlyMovements           *int                  `bson:"monthly_movements,omitempty"`
	PaymentDayOfMonth          *int                  `bson:"payment_day_of_month,omitempty"`
	OverdueAmount              primitive.Decimal128  `bson:"overdue_amount"`
	MaintenanceFeeAmount       primitive.Decimal128  `bson:"maintenance_fee_amount"`
	RequiredDailyAverage       primitive.Decimal128  `bson:"required_daily_average"`
	FreeTransactionLimit       *int                  `bson:"free_transaction_limit,omitempty"`
	TransactionFeeAmount       *primitive.Decimal128 `bson:"transaction_fee_amount,omitempty"`
	CurrentMonthlyTransactions *int                  `bson:"current_monthly_transactions,omitempty"`
	Holders                    []string              `bson:"holders,omitempty"`
	Signatories                []string              `bson:"signatories,omitempty"`
	UpdatedAt                  time.Time             `bson:"updated_at"`
}

// AccountRepository implements the account.Repository interface for MongoDB
type AccountRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAccountRepository creates a new MongoDB account repository
func NewAccountRepository(logger *slog.Logger, db *mongo.Database) account.Repository {
	return &AccountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AccountRepository) collection() *mongo.Collection {
	return r.db.Collection(AccountCollectionName)
}

// Insert stores a new account and sets its generated id.
// Returns ErrDuplicateAccountNumber when the unique number index rejects the write.
func (r *AccountRepository) Insert(ctx context.Context, acc *account.Account) error {
	doc, err := toDocument(acc)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()

	if _, err := r.collection().InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return account.ErrDuplicateAccountNumber{AccountNumber: acc.AccountNumber}
		}
		r.logger.Error("Failed to insert account",
			"customer_id", acc.CustomerID,
			"account_number", acc.AccountNumber,
			"error", err)
		return fmt.Errorf("failed to insert account: %w", err)
	}

	acc.ID = doc.ID.Hex()
	return nil
}

// FindByID returns NotFoundError when no account has the id
// and ValidationError when id is not a valid ObjectID.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*account.Account, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid}, id)
}

func (r *AccountRepository) FindByAccountNumber(ctx context.Context, number string) (*account.Account, error) {
	return r.findOne(ctx, bson.M{"account_number": number}, number)
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M, key string) (*account.Account, error) {
	var doc accountDocument
	err := r.collection().FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, account.NotFound(key)
		}
		r.logger.Error("Failed to get account",
			"key", key,
			"error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return fromDocument(&doc)
}

// FindByCustomerID returns the customer's accounts ordered by opening date
func (r *AccountRepository) FindByCustomerID(ctx context.Context, customerID string) ([]*account.Account, error) {
	opts := options.Find().SetSort(bson.M{"opening_date": 1})
	return r.find(ctx, bson.M{"customer_id": customerID}, opts)
}

// FindAll returns every account regardless of status
func (r *AccountRepository) FindAll(ctx context.Context) ([]*account.Account, error) {
	return r.find(ctx, bson.M{}, options.Find())
}

func (r *AccountRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*account.Account, error) {
	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to find accounts", "error", err)
		return nil, fmt.Errorf("failed to find accounts: %w", err)
	}
	defer cursor.Close(ctx)

	accounts := make([]*account.Account, 0)
	for cursor.Next(ctx) {
		var doc accountDocument
		if err := cursor.Decode(&doc); err != nil {
			r.logger.Error("Failed to decode account", "error", err)
			return nil, fmt.Errorf("failed to decode account: %w", err)
		}
		acc, err := fromDocument(&doc)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	if err := cursor.Err(); err != nil {
		r.logger.Error("Account cursor failed", "error", err)
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

func (r *AccountRepository) CountByCustomerAndAccountType(ctx context.Context, customerID string, accountType account.AccountType) (int64, error) {
	filter := bson.M{"customer_id": customerID, "account_type": string(accountType)}
	return r.count(ctx, filter, options.Count())
}

func (r *AccountRepository) CountByCustomerAndProductType(ctx context.Context, customerID string, productType account.ProductType) (int64, error) {
	filter := bson.M{"customer_id": customerID, "product_type": string(productType)}
	return r.count(ctx, filter, options.Count())
}

// HasActiveCreditCard reports whether the customer holds an ACTIVE credit card product
func (r *AccountRepository) HasActiveCreditCard(ctx context.Context, customerID string) (bool, error) {
	filter := bson.M{
		"customer_id":  customerID,
		"product_type": string(account.ProductActive),
		"credit_type":  string(account.CreditCreditCard),
		"status":       string(account.StatusActive),
	}
	n, err := r.count(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *AccountRepository) count(ctx context.Context, filter bson.M, opts *options.CountOptions) (int64, error) {
	n, err := r.collection().CountDocuments(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to count accounts",
			"filter", filter,
			"error", err)
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return n, nil
}

// countedMovementWindow bounds how many recent movement IDs an account remembers
const countedMovementWindow = 200

// IncrementMonthlyCounter applies a single $inc so concurrent increments are never lost.
// A non-empty movementID is pushed onto counted_movements in the same update and the
// filter skips accounts that already hold it, so a redelivered movement counts once.
// A skipped duplicate still reports the account as matched.
func (r *AccountRepository) IncrementMonthlyCounter(ctx context.Context, id, movementID string) (int64, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return 0, err
	}

	filter := bson.M{"_id": oid}
	update := bson.M{
		"$inc": bson.M{"current_monthly_transactions": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	if movementID != "" {
		filter["counted_movements"] = bson.M{"$ne": movementID}
		update["$push"] = bson.M{"counted_movements": bson.M{
			"$each":  bson.A{movementID},
			"$slice": -countedMovementWindow,
		}}
	}

	result, err := r.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to increment transaction counter",
			"account_id", id,
			"movement_id", movementID,
			"error", err)
		return 0, fmt.Errorf("failed to increment transaction counter: %w", err)
	}
	if result.MatchedCount > 0 || movementID == "" {
		return result.MatchedCount, nil
	}

	// nothing matched: either the account is gone or the movement was already counted
	n, err := r.count(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.logger.Debug("Movement already counted",
			"account_id", id,
			"movement_id", movementID)
	}
	return n, nil
}

// UpdateState writes balance, amount used, status and updated_at with a single $set.
// The monthly counter is left to $inc so a concurrent increment is never overwritten.
// Returns NotFoundError if the account no longer exists.
func (r *AccountRepository) UpdateState(ctx context.Context, acc *account.Account) error {
	oid, err := parseObjectID(acc.ID)
	if err != nil {
		return err
	}
	update, err := stateUpdate(acc)
	if err != nil {
		return err
	}

	result, err := r.collection().UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		r.logger.Error("Failed to update account state",
			"account_id", acc.ID,
			"error", err)
		return fmt.Errorf("failed to update account state: %w", err)
	}
	if result.MatchedCount == 0 {
		return account.NotFound(acc.ID)
	}

	return nil
}

func stateUpdate(acc *account.Account) (bson.M, error) {
	balance, err := toDecimal128(acc.Balance)
	if err != nil {
		return nil, err
	}
	amountUsed, err := toDecimal128(acc.AmountUsed)
	if err != nil {
		return nil, err
	}
	return bson.M{"$set": bson.M{
		"balance":     balance,
		"amount_used": amountUsed,
		"status":      string(acc.Status),
		"updated_at":  acc.UpdatedAt,
	}}, nil
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, shared.ValidationError{Reason: fmt.Sprintf("invalid account id %q", id)}
	}
	return oid, nil
}

func toDocument(acc *account.Account) (*accountDocument, error) {
	doc := &accountDocument{
		CustomerID:                 acc.CustomerID,
		AccountNumber:              acc.AccountNumber,
		ProductType:                string(acc.ProductType),
		AccountType:                string(acc.AccountType),
		CreditType:                 string(acc.CreditType),
		Status:                     string(acc.Status),
		OpeningDate:                acc.OpeningDate,
		SpecificDepositDate:        acc.SpecificDepositDate,
		MonthlyMovements:           acc.MonthlyMovements,
		PaymentDayOfMonth:          acc.PaymentDayOfMonth,
		FreeTransactionLimit:       acc.FreeTransactionLimit,
		CurrentMonthlyTransactions: acc.CurrentMonthlyTransactions,
		Holders:                    acc.Holders,
		Signatories:                acc.Signatories,
		UpdatedAt:                  acc.UpdatedAt,
	}
	if acc.ID != "" {
		oid, err := parseObjectID(acc.ID)
		if err != nil {
			return nil, err
		}
		doc.ID = oid
	}

	var err error
	amounts := []struct {
		dst *primitive.Decimal128
		src decimal.Decimal
	}{
		{&doc.Balance, acc.Balance},
		{&doc.AmountUsed, acc.AmountUsed},
		{&doc.OverdueAmount, acc.OverdueAmount},
		{&doc.MaintenanceFeeAmount, acc.MaintenanceFeeAmount},
		{&doc.RequiredDailyAverage, acc.RequiredDailyAverage},
	}
	for _, a := range amounts {
		if *a.dst, err = toDecimal128(a.src); err != nil {
			return nil, err
		}
	}
	if acc.TransactionFeeAmount != nil {
		fee, err := toDecimal128(*acc.TransactionFeeAmount)
		if err != nil {
			return nil, err
		}
		doc.TransactionFeeAmount = &fee
	}

	return doc, nil
}

func fromDocument(doc *accountDocument) (*account.Account, error) {
	acc := &account.Account{
		ID:                         doc.ID.Hex(),
		CustomerID:                 doc.CustomerID,
		AccountNumber:              doc.AccountNumber,
		ProductType:                account.ProductType(doc.ProductType),
		AccountType:                account.AccountType(doc.AccountType),
		CreditType:                 account.CreditType(doc.CreditType),
		Status:                     account.Status(doc.Status),
		OpeningDate:                doc.OpeningDate,
		SpecificDepositDate:        doc.SpecificDepositDate,
		MonthlyMovements:           doc.MonthlyMovements,
		PaymentDayOfMonth:          doc.PaymentDayOfMonth,
		FreeTransactionLimit:       doc.FreeTransactionLimit,
		CurrentMonthlyTransactions: doc.CurrentMonthlyTransactions,
		Holders:                    doc.Holders,
		Signatories:                doc.Signatories,
		UpdatedAt:                  doc.UpdatedAt,
	}

	var err error
	amounts := []struct {
		dst *decimal.Decimal
		src primitive.Decimal128
	}{
		{&acc.Balance, doc.Balance},
		{&acc.AmountUsed, doc.AmountUsed},
		{&acc.OverdueAmount, doc.OverdueAmount},
		{&acc.MaintenanceFeeAmount, doc.MaintenanceFeeAmount},
		{&acc.RequiredDailyAverage, doc.RequiredDailyAverage},
	}
	for _, a := range amounts {
		if *a.dst, err = fromDecimal128(a.src); err != nil {
			return nil, err
		}
	}
	if doc.TransactionFeeAmount != nil {
		fee, err := fromDecimal128(*doc.TransactionFeeAmount)
		if err != nil {
			return nil, err
		}
		acc.TransactionFeeAmount = &fee
	}

	return acc, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to encode amount %s: %w", d.String(), err)
	}
	return v, nil
}

// fromDecimal128 treats an unset field (older documents) as zero
func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	if v == (primitive.Decimal128{}) {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode amount %s: %w", v.String(), err)
	}
	return d, nil
}
