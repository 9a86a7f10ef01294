package account

import (
	"context"
	"fmt"

	"github.com/bancario/account-service/internal/domain/customer"
	"github.com/bancario/account-service/internal/domain/shared"
)

// Decision is the outcome of an eligibility rule
type Decision struct {
	Accepted bool
	Reason   string
}

func accept() Decision { return Decision{Accepted: true} }

func reject(reason string) Decision { return Decision{Reason: reason} }

// Err converts a rejection into a ValidationError
func (d Decision) Err() error {
	if d.Accepted {
		return nil
	}
	return shared.ValidationError{Reason: d.Reason}
}

// Facts are the persisted-state inputs a rule may consult
type Facts struct {
	SameTypeCount       int64
	ActiveProductCount  int64
	HasActiveCreditCard bool
}

type factSet uint8

const (
	factSameTypeCount factSet = 1 << iota
	factActiveProductCount
	factActiveCreditCard
)

type rule struct {
	needs  func(req *CreationRequest) factSet
	decide func(req *CreationRequest, f Facts) Decision
}

type ruleKey struct {
	product ProductType
	segment customer.Segment
}

func needsNothing(*CreationRequest) factSet { return 0 }

func acceptAll(*CreationRequest, Facts) Decision { return accept() }

var eligibilityRules = map[ruleKey]rule{
	{ProductActive, customer.SegmentPersonal}: {
		needs: func(*CreationRequest) factSet { return factActiveProductCount },
		decide: func(_ *CreationRequest, f Facts) Decision {
			if f.ActiveProductCount >= 1 {
				return reject("personal customers can hold only one credit product")
			}
			return accept()
		},
	},
	{ProductActive, customer.SegmentEmpresarial}: {needs: needsNothing, decide: acceptAll},
	{ProductActive, customer.SegmentVIP}:         {needs: needsNothing, decide: acceptAll},
	{ProductActive, customer.SegmentPYME}:        {needs: needsNothing, decide: acceptAll},

	{ProductPassive, customer.SegmentVIP}: {
		needs: func(req *CreationRequest) factSet {
			if req.AccountType == AccountSavings {
				return factActiveCreditCard | factSameTypeCount
			}
			return factSameTypeCount
		},
		decide: func(req *CreationRequest, f Facts) Decision {
			if req.AccountType == AccountSavings && !f.HasActiveCreditCard {
				return reject("VIP savings accounts require an active credit card")
			}
			if f.SameTypeCount > 0 {
				return reject(fmt.Sprintf("VIP customer already holds a %s account", req.AccountType))
			}
			return accept()
		},
	},
	{ProductPassive, customer.SegmentPYME}: {
		needs: func(req *CreationRequest) factSet {
			if req.AccountType == AccountCurrent {
				return factActiveCreditCard
			}
			return 0
		},
		decide: func(req *CreationRequest, f Facts) Decision {
			switch req.AccountType {
			case AccountSavings, AccountFixedTerm:
				return reject("PYME customers cannot open savings or fixed term accounts")
			case AccountCurrent:
				if !f.HasActiveCreditCard {
					return reject("PYME current accounts require an active credit card")
				}
				if len(req.Holders) == 0 {
					return reject("PYME current accounts require at least one holder")
				}
			}
			return accept()
		},
	},
	{ProductPassive, customer.SegmentPersonal}: {
		needs: func(*CreationRequest) factSet { return factSameTypeCount },
		decide: func(req *CreationRequest, f Facts) Decision {
			if f.SameTypeCount >= 1 {
				return reject(fmt.Sprintf("personal customer already holds a %s account", req.AccountType))
			}
			return accept()
		},
	},
	{ProductPassive, customer.SegmentEmpresarial}: {
		needs: needsNothing,
		decide: func(req *CreationRequest, _ Facts) Decision {
			if len(req.Holders) == 0 {
				return reject("business accounts require at least one holder")
			}
			if req.AccountType == AccountSavings || req.AccountType == AccountFixedTerm {
				return reject("business customers cannot open savings or fixed term accounts")
			}
			return accept()
		},
	},
}

// EligibilityEvaluator decides whether a customer may open the requested product
type EligibilityEvaluator struct {
	repo Repository
}

func NewEligibilityEvaluator(repo Repository) *EligibilityEvaluator {
	return &EligibilityEvaluator{repo: repo}
}

// Evaluate runs request validation, then the rule for (productType, segment).
// Only the store queries the selected rule declares are issued.
func (e *EligibilityEvaluator) Evaluate(ctx context.Context, req *CreationRequest, profile *customer.Profile) (Decision, error) {
	if err := ValidateCreationRequest(req); err != nil {
		return Decision{}, err
	}
	if profile == nil || !profile.Segment.Valid() {
		segment := ""
		if profile != nil {
			segment = string(profile.Segment)
		}
		return reject(fmt.Sprintf("unsupported customer segment %q", segment)), nil
	}

	r, ok := eligibilityRules[ruleKey{req.ProductType, profile.Segment}]
	if !ok {
		return reject(fmt.Sprintf("no eligibility rule for %s/%s", req.ProductType, profile.Segment)), nil
	}

	facts, err := e.loadFacts(ctx, req, r.needs(req))
	if err != nil {
		return Decision{}, err
	}
	return r.decide(req, facts), nil
}

func (e *EligibilityEvaluator) loadFacts(ctx context.Context, req *CreationRequest, needs factSet) (Facts, error) {
	var f Facts
	var err error

	if needs&factActiveProductCount != 0 {
		if f.ActiveProductCount, err = e.repo.CountByCustomerAndProductType(ctx, req.CustomerID, ProductActive); err != nil {
			return f, fmt.Errorf("failed to count credit products: %w", err)
		}
	}
	if needs&factActiveCreditCard != 0 {
		if f.HasActiveCreditCard, err = e.repo.HasActiveCreditCard(ctx, req.CustomerID); err != nil {
			return f, fmt.Errorf("failed to check credit cards: %w", err)
		}
		// Without a card the VIP and PYME rules reject regardless of the remaining facts.
		if !f.HasActiveCreditCard {
			return f, nil
		}
	}
	if needs&factSameTypeCount != 0 {
		if f.SameTypeCount, err = e.repo.CountByCustomerAndAccountType(ctx, req.CustomerID, req.AccountType); err != nil {
			return f, fmt.Errorf("failed to count accounts by type: %w", err)
		}
	}
	return f, nil
}
