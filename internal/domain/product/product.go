package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/wildgarden/internal/domain/window"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrAlreadyExists is returned when creating a product whose ID is taken.
	ErrAlreadyExists = errors.New("product already exists")
)

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	ImageURL    string
	// Price is the base price in the smallest currency unit.
	Price    int64
	Discount Discount
	// Active controls catalog visibility only. Pricing ignores it.
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Discount is a time-windowed percentage reduction of a single product.
type Discount struct {
	Percent int
	Enabled bool
	Window  window.Window
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}

// Store extends Repository with catalog writes.
type Store interface {
	Repository
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
}
