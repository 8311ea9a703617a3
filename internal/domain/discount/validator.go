package discount

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/wildgarden/internal/domain/pricing"
)

// Reason explains why a code was rejected.
type Reason string

const (
	ReasonMissingCode    Reason = "missing_code"
	ReasonNotFound       Reason = "not_found"
	ReasonDisabled       Reason = "disabled"
	ReasonInvalidPercent Reason = "invalid_percent"
	ReasonInactive       Reason = "inactive"
)

// Result is the outcome of validating a code. Percent is 0 unless Valid.
type Result struct {
	Valid   bool
	Code    string
	Percent int
	Reason  Reason
}

// LookupError means the code store could not be read. It is distinct from a
// code that does not apply.
type LookupError struct {
	Code string
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup discount code %q: %v", e.Code, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Validator checks whether a raw code may be applied to an order at the
// given instant.
type Validator interface {
	Validate(ctx context.Context, raw string, at time.Time) (Result, error)
}

var _ Validator = (*RepoValidator)(nil)

// RepoValidator implements Validator by reading codes from a Repository.
// The checkout path and the pre-check endpoint share one instance.
type RepoValidator struct {
	repo Repository
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo}
}

// Validate normalizes raw, performs a single lookup and checks the enabled
// flag, the percent and whether the validity window contains at.
func (v *RepoValidator) Validate(ctx context.Context, raw string, at time.Time) (Result, error) {
	code := Normalize(raw)
	if code == "" {
		return Result{Reason: ReasonMissingCode}, nil
	}

	c, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Result{Code: code, Reason: ReasonNotFound}, nil
		}
		return Result{}, &LookupError{Code: code, Err: err}
	}

	pct := pricing.ClampPercent(c.Percent)
	switch {
	case !c.Enabled:
		return Result{Code: code, Reason: ReasonDisabled}, nil
	case pct <= 0:
		return Result{Code: code, Reason: ReasonInvalidPercent}, nil
	case !c.Window.Contains(at):
		return Result{Code: code, Reason: ReasonInactive}, nil
	}

	return Result{Valid: true, Code: code, Percent: pct}, nil
}
