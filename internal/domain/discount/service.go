package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/wildgarden/internal/domain/pricing"
	"github.com/xenking/wildgarden/internal/domain/validate"
	"github.com/xenking/wildgarden/internal/domain/window"
)

// listLimit caps the admin listing.
const listLimit = 200

// CreateInput describes a new discount code.
type CreateInput struct {
	Code    string
	Percent int
	// Enabled defaults to true when nil.
	Enabled *bool
	Window  window.Window
}

// Patch is a partial update. Nil fields keep their stored value.
type Patch struct {
	Percent *int
	Enabled *bool
	Window  window.Patch
}

// Service manages discount codes for administrators.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns the most recently created codes first.
func (s *Service) List(ctx context.Context) ([]Code, error) {
	codes, err := s.repo.List(ctx, listLimit)
	if err != nil {
		return nil, errors.Wrap(err, "list discount codes")
	}
	return codes, nil
}

// Create validates and stores a new code.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Code, error) {
	now := s.now()
	c := &Code{
		Code:      Normalize(in.Code),
		Percent:   pricing.ClampPercent(in.Percent),
		Enabled:   in.Enabled == nil || *in.Enabled,
		Window:    in.Window.Normalize(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if c.Code == "" {
		return nil, validate.New("code", "is required")
	}
	if err := check(c); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update applies patch to an existing code and re-validates the merged result.
func (s *Service) Update(ctx context.Context, raw string, patch Patch) (*Code, error) {
	c, err := s.repo.FindByCode(ctx, Normalize(raw))
	if err != nil {
		return nil, err
	}
	if patch.Percent != nil {
		c.Percent = pricing.ClampPercent(*patch.Percent)
	}
	if patch.Enabled != nil {
		c.Enabled = *patch.Enabled
	}
	c.Window = patch.Window.Apply(c.Window)

	if err := check(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a code.
func (s *Service) Delete(ctx context.Context, raw string) error {
	code := Normalize(raw)
	if code == "" {
		return validate.New("code", "is required")
	}
	return s.repo.Delete(ctx, code)
}

func check(c *Code) error {
	if c.Percent <= 0 {
		return validate.New("percent", "must be between 1 and 100")
	}
	return c.Window.Validate()
}
