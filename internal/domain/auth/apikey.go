package auth

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
)

// ScopeAdmin grants access to catalog, discount code, notice and order
// administration.
const ScopeAdmin = "admin"

// ErrNotFound is returned when no active key matches the hash.
var ErrNotFound = errors.New("api key not found")

// APIKeyInfo holds the identity and permission data for a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// HasScope reports whether the key carries scope.
func (k *APIKeyInfo) HasScope(scope string) bool {
	return slices.Contains(k.Scopes, scope)
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

type principalKey struct{}

// WithPrincipal stores the authenticated key in ctx.
func WithPrincipal(ctx context.Context, k *APIKeyInfo) context.Context {
	return context.WithValue(ctx, principalKey{}, k)
}

// PrincipalFrom returns the authenticated key, or nil for anonymous requests.
func PrincipalFrom(ctx context.Context) *APIKeyInfo {
	k, _ := ctx.Value(principalKey{}).(*APIKeyInfo)
	return k
}
