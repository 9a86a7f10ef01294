// Package resilience guards calls to degraded dependencies with a circuit breaker
// and a per-call timeout.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bancario/account-service/internal/config"
	"github.com/bancario/account-service/internal/domain/shared"
)

var (
	// ErrCircuitOpen is returned without invoking the call while the breaker is open
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTimeout is returned when a call exceeds the configured timeout
	ErrTimeout = errors.New("call timed out")
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Settings configures one breaker
type Settings struct {
	Name string
	// Timeout bounds a single call; zero disables it
	Timeout time.Duration
	// RequestVolumeThreshold is the rolling window size; the ratio is evaluated only on a full window
	RequestVolumeThreshold int
	// FailureRatio opens the breaker when failures/window reaches it
	FailureRatio float64
	// Delay is how long the breaker stays open before allowing trial calls
	Delay time.Duration
	// SuccessThreshold is the number of successful trial calls that close it again
	SuccessThreshold int
}

func DefaultSettings(name string) Settings {
	return Settings{
		Name:                   name,
		Timeout:                time.Second,
		RequestVolumeThreshold: 20,
		FailureRatio:           0.5,
		Delay:                  5 * time.Second,
		SuccessThreshold:       1,
	}
}

// SettingsFromConfig applies the shared fault tolerance configuration to one breaker
func SettingsFromConfig(name string, cfg *config.FaultToleranceConfig) Settings {
	return Settings{
		Name:                   name,
		Timeout:                cfg.Timeout,
		RequestVolumeThreshold: cfg.RequestVolumeThreshold,
		FailureRatio:           cfg.FailureRatio,
		Delay:                  cfg.Delay,
		SuccessThreshold:       cfg.SuccessThreshold,
	}
}

// Breaker is a CLOSED -> OPEN -> HALF_OPEN state machine over a rolling outcome window.
// Domain outcomes (validation, not found, business rule) are passed through and
// recorded as successes.
type Breaker struct {
	settings Settings
	logger   *slog.Logger
	now      func() time.Time

	mu                sync.Mutex
	state             State
	window            []bool // true marks a failure
	next              int
	filled            int
	failures          int
	openedAt          time.Time
	halfOpenInFlight  int
	halfOpenSuccesses int
}

func NewBreaker(logger *slog.Logger, settings Settings) *Breaker {
	if settings.RequestVolumeThreshold <= 0 {
		settings.RequestVolumeThreshold = 1
	}
	if settings.SuccessThreshold <= 0 {
		settings.SuccessThreshold = 1
	}
	if settings.FailureRatio <= 0 || settings.FailureRatio > 1 {
		settings.FailureRatio = 1
	}
	return &Breaker{
		settings: settings,
		logger:   logger,
		now:      time.Now,
		state:    StateClosed,
		window:   make([]bool, settings.RequestVolumeThreshold),
	}
}

func (b *Breaker) Name() string {
	return b.settings.Name
}

// State reports the current state, moving OPEN to HALF_OPEN once the delay has elapsed
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshLocked()
	return b.state
}

// Execute runs fn under the breaker. The returned error is fn's own error,
// ErrCircuitOpen, ErrTimeout or the caller's context error.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.acquire(); err != nil {
		return err
	}

	err := b.run(ctx, fn)

	if ctx.Err() != nil && !errors.Is(err, ErrTimeout) {
		// The caller gave up; the dependency is not to blame.
		b.release()
		return err
	}
	b.record(err == nil || shared.IsDomainOutcome(err))
	return err
}

// Call is Execute for functions that return a value
func Call[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := b.Execute(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

func (b *Breaker) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if b.settings.Timeout <= 0 {
		return fn(ctx)
	}

	callCtx, cancel := context.WithTimeout(ctx, b.settings.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(callCtx)
	}()

	select {
	case err := <-done:
		if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w", b.settings.Name, ErrTimeout)
		}
		return err
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w", b.settings.Name, ErrTimeout)
	}
}

func (b *Breaker) acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refreshLocked()
	switch b.state {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.halfOpenInFlight >= b.settings.SuccessThreshold {
			return ErrCircuitOpen
		}
		b.halfOpenInFlight++
	}
	return nil
}

func (b *Breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateHalfOpen && b.halfOpenInFlight > 0 {
		b.halfOpenInFlight--
	}
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		if b.halfOpenInFlight > 0 {
			b.halfOpenInFlight--
		}
		if !success {
			b.transitionLocked(StateOpen)
			return
		}
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.settings.SuccessThreshold {
			b.transitionLocked(StateClosed)
		}
	case StateClosed:
		b.pushLocked(!success)
		if b.filled == len(b.window) &&
			float64(b.failures)/float64(len(b.window)) >= b.settings.FailureRatio {
			b.transitionLocked(StateOpen)
		}
	case StateOpen:
		// a call admitted before the breaker opened; its outcome no longer matters
	}
}

func (b *Breaker) pushLocked(failure bool) {
	if b.filled == len(b.window) {
		if b.window[b.next] {
			b.failures--
		}
	} else {
		b.filled++
	}
	b.window[b.next] = failure
	if failure {
		b.failures++
	}
	b.next = (b.next + 1) % len(b.window)
}

func (b *Breaker) refreshLocked() {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.settings.Delay {
		b.transitionLocked(StateHalfOpen)
	}
}

func (b *Breaker) transitionLocked(to State) {
	from := b.state
	b.state = to
	b.halfOpenInFlight = 0
	b.halfOpenSuccesses = 0

	switch to {
	case StateOpen:
		b.openedAt = b.now()
	case StateClosed:
		for i := range b.window {
			b.window[i] = false
		}
		b.next, b.filled, b.failures = 0, 0, 0
	}

	if b.logger != nil {
		b.logger.Warn("Circuit breaker state changed",
			"breaker", b.settings.Name,
			"from", from.String(),
			"to", to.String())
	}
}
