package product

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/samber/lo"

	"github.com/xenking/wildgarden/internal/domain/pricing"
	"github.com/xenking/wildgarden/internal/domain/validate"
	"github.com/xenking/wildgarden/internal/domain/window"
)

// CreateInput describes a new catalog product.
type CreateInput struct {
	ID          string
	Name        string
	Description string
	Category    string
	ImageURL    string
	Price       int64
	Discount    Discount
	// Active defaults to true when nil.
	Active *bool
}

// Patch is a partial product update. Nil fields are left unchanged.
type Patch struct {
	Name            *string
	Description     *string
	Category        *string
	ImageURL        *string
	Price           *int64
	DiscountPercent *int
	DiscountEnabled *bool
	DiscountWindow  window.Patch
	Active          *bool
}

// Service exposes catalog reads for shoppers and writes for admins.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a catalog Service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Now returns the service clock reading, used to price catalog responses.
func (s *Service) Now() time.Time {
	return s.now()
}

// List returns visible products ordered by name.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(all, func(p Product, _ int) bool { return p.Active }), nil
}

// ListAll returns every product, including hidden ones, ordered by name.
func (s *Service) ListAll(ctx context.Context) ([]Product, error) {
	products, err := s.store.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	sort.SliceStable(products, func(i, j int) bool {
		return strings.ToLower(products[i].Name) < strings.ToLower(products[j].Name)
	})
	return products, nil
}

// Get returns a single product, visible or not.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.store.GetByID(ctx, strings.TrimSpace(id))
}

// Create validates and stores a new product.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Product, error) {
	now := s.now()
	p := &Product{
		ID:          strings.TrimSpace(in.ID),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Price:       in.Price,
		Discount:    in.Discount,
		Active:      in.Active == nil || *in.Active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.ID == "" {
		return nil, validate.New("id", "is required")
	}
	if err := normalize(p); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies patch to the product with the given id.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Product, error) {
	p, err := s.store.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}

	setString(&p.Name, patch.Name)
	setString(&p.Description, patch.Description)
	setString(&p.Category, patch.Category)
	setString(&p.ImageURL, patch.ImageURL)
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.DiscountPercent != nil {
		p.Discount.Percent = *patch.DiscountPercent
	}
	if patch.DiscountEnabled != nil {
		p.Discount.Enabled = *patch.DiscountEnabled
	}
	if patch.Active != nil {
		p.Active = *patch.Active
	}
	p.Discount.Window = patch.DiscountWindow.Apply(p.Discount.Window)

	if err := normalize(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now()
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// normalize enforces the write-time product invariants.
func normalize(p *Product) error {
	if p.Name == "" {
		return validate.New("name", "is required")
	}
	if p.Price < 0 {
		return validate.New("price", "must not be negative")
	}
	if p.Price > pricing.MaxAmount {
		return validate.New("price", "must be at most %d", pricing.MaxAmount)
	}
	p.Discount.Percent = pricing.ClampPercent(p.Discount.Percent)
	p.Discount.Window = p.Discount.Window.Normalize()
	return p.Discount.Window.Validate()
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
