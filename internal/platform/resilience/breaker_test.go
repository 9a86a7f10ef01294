package resilience

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bancario/account-service/internal/config"
	"github.com/bancario/account-service/internal/domain/shared"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(settings Settings) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := NewBreaker(slog.New(slog.NewTextHandler(os.Stdout, nil)), settings)
	b.now = clock.now
	return b, clock
}

func testSettings() Settings {
	return Settings{
		Name:                   "test",
		Timeout:                0,
		RequestVolumeThreshold: 4,
		FailureRatio:           0.5,
		Delay:                  5 * time.Second,
		SuccessThreshold:       2,
	}
}

var errBoom = errors.New("boom")

func fail(context.Context) error    { return errBoom }
func succeed(context.Context) error { return nil }

func TestBreaker_OpensOnFailureRatio(t *testing.T) {
	b, _ := newTestBreaker(testSettings())
	ctx := context.Background()

	assert.ErrorIs(t, b.Execute(ctx, fail), errBoom)
	assert.NoError(t, b.Execute(ctx, succeed))
	assert.ErrorIs(t, b.Execute(ctx, fail), errBoom)
	assert.Equal(t, StateClosed, b.State(), "window not full yet")

	assert.NoError(t, b.Execute(ctx, succeed))
	assert.Equal(t, StateOpen, b.State(), "2 of 4 failed")

	var calls int32
	err := b.Execute(ctx, func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Zero(t, atomic.LoadInt32(&calls), "open breaker must not invoke the call")
}

func TestBreaker_WindowRolls(t *testing.T) {
	b, _ := newTestBreaker(testSettings())
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	for i := 0; i < 3; i++ {
		_ = b.Execute(ctx, succeed)
	}
	assert.Equal(t, StateClosed, b.State())

	// the old failure falls out of the window
	_ = b.Execute(ctx, succeed)
	_ = b.Execute(ctx, fail)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_DomainOutcomesDoNotCount(t *testing.T) {
	b, _ := newTestBreaker(testSettings())
	ctx := context.Background()

	outcomes := []error{
		shared.ValidationError{Reason: "bad"},
		shared.NotFoundError{Resource: "account", ID: "x"},
		shared.BusinessRuleError{Reason: "no"},
		shared.NotFoundError{Resource: "account", ID: "y"},
	}
	for _, outcome := range outcomes {
		err := b.Execute(ctx, func(context.Context) error { return outcome })
		assert.Equal(t, outcome, err, "domain outcomes pass through unchanged")
	}

	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpen(t *testing.T) {
	ctx := context.Background()

	open := func(t *testing.T) (*Breaker, *fakeClock) {
		b, clock := newTestBreaker(testSettings())
		for i := 0; i < 4; i++ {
			_ = b.Execute(ctx, fail)
		}
		require.Equal(t, StateOpen, b.State())
		return b, clock
	}

	t.Run("StaysOpenUntilDelay", func(t *testing.T) {
		b, clock := open(t)
		clock.advance(4 * time.Second)
		assert.ErrorIs(t, b.Execute(ctx, succeed), ErrCircuitOpen)
	})

	t.Run("ClosesAfterSuccessThreshold", func(t *testing.T) {
		b, clock := open(t)
		clock.advance(5 * time.Second)
		assert.Equal(t, StateHalfOpen, b.State())

		assert.NoError(t, b.Execute(ctx, succeed))
		assert.Equal(t, StateHalfOpen, b.State())
		assert.NoError(t, b.Execute(ctx, succeed))
		assert.Equal(t, StateClosed, b.State())
	})

	t.Run("FailureReopens", func(t *testing.T) {
		b, clock := open(t)
		clock.advance(6 * time.Second)

		assert.ErrorIs(t, b.Execute(ctx, fail), errBoom)
		assert.Equal(t, StateOpen, b.State())

		clock.advance(time.Second)
		assert.ErrorIs(t, b.Execute(ctx, succeed), ErrCircuitOpen, "delay restarts on reopen")
	})
}

func TestBreaker_Timeout(t *testing.T) {
	settings := testSettings()
	settings.Timeout = 20 * time.Millisecond
	settings.RequestVolumeThreshold = 1
	b, _ := newTestBreaker(settings)

	err := b.Execute(context.Background(), func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, StateOpen, b.State(), "a timeout is a failure")
}

func TestBreaker_CallerCancellationIsNotAFailure(t *testing.T) {
	settings := testSettings()
	settings.Timeout = time.Second
	settings.RequestVolumeThreshold = 1
	b, _ := newTestBreaker(settings)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Execute(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, b.State())
}

func TestCall(t *testing.T) {
	b, _ := newTestBreaker(testSettings())

	v, err := Call(context.Background(), b, func(context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = Call(context.Background(), b, func(context.Context) (int, error) { return 7, errBoom })
	assert.ErrorIs(t, err, errBoom)
	assert.Zero(t, v)
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := &config.FaultToleranceConfig{
		Timeout:                2 * time.Second,
		RequestVolumeThreshold: 10,
		FailureRatio:           0.25,
		Delay:                  time.Minute,
		SuccessThreshold:       3,
	}

	s := SettingsFromConfig("customer lookup", cfg)

	assert.Equal(t, Settings{
		Name:                   "customer lookup",
		Timeout:                2 * time.Second,
		RequestVolumeThreshold: 10,
		FailureRatio:           0.25,
		Delay:                  time.Minute,
		SuccessThreshold:       3,
	}, s)
}
