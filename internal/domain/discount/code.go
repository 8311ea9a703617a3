// Package discount implements order-level discount codes: normalization,
// validation at checkout, and administration.
package discount

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/go-faster/errors"

	"github.com/xenking/wildgarden/internal/domain/window"
)

var (
	// ErrNotFound is returned by a Repository when no code matches.
	ErrNotFound = errors.New("discount code not found")
	// ErrAlreadyExists is returned when creating a code that is already stored.
	ErrAlreadyExists = errors.New("discount code already exists")
)

// Code is a stored discount code. Code is always in normalized form.
type Code struct {
	Code      string
	Percent   int
	Enabled   bool
	Window    window.Window
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository persists discount codes keyed by their normalized form.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Code, error)
	List(ctx context.Context, limit int) ([]Code, error)
	Create(ctx context.Context, c *Code) error
	Update(ctx context.Context, c *Code) error
	Delete(ctx context.Context, code string) error
}

// Normalize returns the canonical form of a code: upper case with every
// whitespace rune removed.
func Normalize(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, raw)
}
