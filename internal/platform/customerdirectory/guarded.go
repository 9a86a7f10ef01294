package customerdirectory

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bancario/account-service/internal/domain/customer"
	"github.com/bancario/account-service/internal/domain/shared"
	"github.com/bancario/account-service/internal/platform/resilience"
)

const lookupOperation = "customer lookup"

// GuardedDirectory puts a circuit breaker in front of a customer.Directory.
// An unknown customer becomes a NotFoundError and does not trip the breaker;
// every other failure becomes a ServiceUnavailableError.
type GuardedDirectory struct {
	next    customer.Directory
	breaker *resilience.Breaker
	logger  *slog.Logger
}

func NewGuardedDirectory(logger *slog.Logger, next customer.Directory, breaker *resilience.Breaker) *GuardedDirectory {
	return &GuardedDirectory{
		next:    next,
		breaker: breaker,
		logger:  logger,
	}
}

func (g *GuardedDirectory) GetCustomerByID(ctx context.Context, id string) (*customer.Profile, error) {
	profile, err := resilience.Call(ctx, g.breaker, func(ctx context.Context) (*customer.Profile, error) {
		p, err := g.next.GetCustomerByID(ctx, id)
		if errors.Is(err, customer.ErrCustomerNotFound) {
			return nil, shared.NotFoundError{Resource: "customer", ID: id}
		}
		return p, err
	})
	if err == nil {
		return profile, nil
	}
	if shared.IsDomainOutcome(err) {
		return nil, err
	}

	g.logger.Warn("Customer lookup fell back",
		"customer_id", id,
		"breaker_state", g.breaker.State().String(),
		"error", err)
	return nil, shared.ServiceUnavailableError{Operation: lookupOperation, Cause: err}
}
