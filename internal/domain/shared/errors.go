package shared

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed or ineligible request
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// Is matches any ValidationError so callers can use errors.Is(err, ValidationError{})
func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	return ok
}

// NotFoundError reports a referenced entity that does not exist
type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// Is matches any NotFoundError when the target has no resource set,
// otherwise resource and id must both match.
func (e NotFoundError) Is(target error) bool {
	t, ok := target.(NotFoundError)
	if !ok {
		return false
	}
	if t.Resource == "" {
		return true
	}
	return e.Resource == t.Resource && (t.ID == "" || e.ID == t.ID)
}

// BusinessRuleError reports a domain invariant violated by an otherwise well-formed request
type BusinessRuleError struct {
	Reason string
}

func (e BusinessRuleError) Error() string {
	return "business rule violated: " + e.Reason
}

func (e BusinessRuleError) Is(target error) bool {
	_, ok := target.(BusinessRuleError)
	return ok
}

// ServiceUnavailableError is produced only by fallback paths when a dependency is degraded
type ServiceUnavailableError struct {
	Operation string
	Cause     error
}

func (e ServiceUnavailableError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s is temporarily unavailable", e.Operation)
	}
	return fmt.Sprintf("%s is temporarily unavailable: %v", e.Operation, e.Cause)
}

func (e ServiceUnavailableError) Unwrap() error {
	return e.Cause
}

func (e ServiceUnavailableError) Is(target error) bool {
	_, ok := target.(ServiceUnavailableError)
	return ok
}

// DataAccessError wraps persistence failures that are not otherwise classified
type DataAccessError struct {
	Operation string
	Cause     error
}

func (e DataAccessError) Error() string {
	return fmt.Sprintf("data access failed during %s: %v", e.Operation, e.Cause)
}

func (e DataAccessError) Unwrap() error {
	return e.Cause
}

func (e DataAccessError) Is(target error) bool {
	_, ok := target.(DataAccessError)
	return ok
}

// IsDomainOutcome reports whether err is an expected business outcome rather than an
// infrastructure failure. Fault boundaries pass these through without counting them.
func IsDomainOutcome(err error) bool {
	return errors.Is(err, ValidationError{}) ||
		errors.Is(err, NotFoundError{}) ||
		errors.Is(err, BusinessRuleError{})
}
