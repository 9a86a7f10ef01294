// Package eod captures the end-of-day balance of every account.
package eod

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/bancario/account-service/internal/domain/account"
	"github.com/bancario/account-service/internal/domain/shared"
	"github.com/bancario/account-service/internal/domain/snapshot"
	"github.com/bancario/account-service/internal/platform/messaging/producers"
)

// Result summarises one run
type Result struct {
	SnapshotDate time.Time
	Accounts     int
	Written      int64
	Err          error
	Duration     time.Duration
}

// Job snapshots all accounts, whatever their status, into the snapshot store
type Job struct {
	accounts  account.Repository
	snapshots snapshot.Repository
	events    producers.MessagePublisher
	location  *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

type Option func(*Job)

// WithLocation sets the timezone whose calendar date labels the snapshots
func WithLocation(loc *time.Location) Option {
	return func(j *Job) {
		if loc != nil {
			j.location = loc
		}
	}
}

func WithEventPublisher(p producers.MessagePublisher) Option {
	return func(j *Job) { j.events = p }
}

func withClock(now func() time.Time) Option {
	return func(j *Job) { j.now = now }
}

func NewJob(logger *slog.Logger, accounts account.Repository, snapshots snapshot.Repository, opts ...Option) *Job {
	j := &Job{
		accounts:  accounts,
		snapshots: snapshots,
		location:  time.UTC,
		now:       time.Now,
		logger:    logger.With("job", "eod_snapshot"),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Run takes one snapshot per account in a single batch write. Failures are
// logged and reported in the Result; nothing is retried or rolled back.
func (j *Job) Run(ctx context.Context) (res Result) {
	started := j.now()
	res = Result{SnapshotDate: snapshot.DateOf(started.In(j.location))}
	logger := j.logger.With("snapshot_date", res.SnapshotDate.Format(time.DateOnly))
	logger.Info("EOD snapshot started")

	defer func() {
		res.Duration = j.now().Sub(started)
	}()

	accounts, err := j.accounts.FindAll(ctx)
	if err != nil {
		logger.Error("EOD snapshot failed to load accounts", "error", err)
		res.Err = err
		return res
	}
	res.Accounts = len(accounts)
	if len(accounts) == 0 {
		logger.Info("EOD snapshot found no accounts, nothing written")
		return res
	}

	batch := make([]snapshot.BalanceSnapshot, 0, len(accounts))
	for _, acc := range accounts {
		batch = append(batch, snapshot.FromAccount(acc, res.SnapshotDate))
	}

	written, err := j.snapshots.InsertBatch(ctx, batch)
	if err != nil {
		logger.Error("EOD snapshot failed to persist batch",
			"accounts", len(batch),
			"error", err)
		res.Err = err
		return res
	}
	res.Written = written

	logger.Info("EOD snapshot completed", "accounts", len(batch), "written", written)
	j.publishCompleted(ctx, res)
	return res
}

func (j *Job) publishCompleted(ctx context.Context, res Result) {
	if j.events == nil {
		return
	}
	event := shared.NewAccountEvent(shared.AccountEventSnapshotsCompleted)
	event.Attributes = map[string]string{
		"snapshot_date": res.SnapshotDate.Format(time.DateOnly),
		"accounts":      strconv.Itoa(res.Accounts),
		"written":       strconv.FormatInt(res.Written, 10),
	}
	if err := j.events.Publish(ctx, event.Key(), event); err != nil {
		j.logger.Warn("Failed to publish EOD completion event", "error", err)
	}
}
