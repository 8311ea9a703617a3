package handler

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/wildgarden/internal/domain/auth"
	"github.com/xenking/wildgarden/pkg/httpmiddleware"
)

var errUnauthorized = errors.New("unauthorized")

// Authenticator resolves API keys sent as "Authorization: Bearer <key>" or in
// the api_key header.
type Authenticator struct {
	keys   auth.Repository
	pepper []byte
}

// NewAuthenticator creates an Authenticator with the given key repository
// and HMAC pepper.
func NewAuthenticator(keys auth.Repository, pepper []byte) *Authenticator {
	return &Authenticator{keys: keys, pepper: pepper}
}

// Authenticate hashes raw, looks the hash up and compares it in constant time.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (*auth.APIKeyInfo, error) {
	hash := auth.HashKey(a.pepper, raw)
	info, err := a.keys.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, errUnauthorized
		}
		return nil, errors.Wrap(err, "find api key")
	}

	want, err := hex.DecodeString(hash)
	if err != nil {
		return nil, errUnauthorized
	}
	got, err := hex.DecodeString(info.KeyHash)
	if err != nil || subtle.ConstantTimeCompare(want, got) != 1 {
		return nil, errUnauthorized
	}
	return info, nil
}

// Optional attaches the principal when a key is sent. Requests without a key
// pass through anonymously; an invalid key is rejected.
func (a *Authenticator) Optional() httpmiddleware.Middleware {
	return a.middleware(false)
}

// Required rejects requests without a valid key.
func (a *Authenticator) Required() httpmiddleware.Middleware {
	return a.middleware(true)
}

func (a *Authenticator) middleware(required bool) httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := apiKeyFrom(r)
			if raw == "" {
				if required {
					failStatus(w, http.StatusUnauthorized, "authentication required")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			info, err := a.Authenticate(r.Context(), raw)
			switch {
			case errors.Is(err, errUnauthorized):
				failStatus(w, http.StatusUnauthorized, "invalid api key")
				return
			case err != nil:
				fail(w, r, err)
				return
			}

			ctx := auth.WithPrincipal(r.Context(), info)
			ctx = zctx.With(ctx, zap.String("api_key_id", info.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireScope rejects authenticated callers lacking scope. It must run
// after Required.
func RequireScope(scope string) httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := auth.PrincipalFrom(r.Context())
			if p == nil {
				failStatus(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !p.HasScope(scope) {
				failStatus(w, http.StatusForbidden, "insufficient scope")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func apiKeyFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get("api_key"))
}
