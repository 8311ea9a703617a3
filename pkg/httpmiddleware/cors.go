package httpmiddleware

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

// DefaultOriginPatterns match local development servers, preview deployments
// and the production storefront.
var DefaultOriginPatterns = []string{
	`^https?://localhost(:\d+)?$`,
	`^https?://127\.0\.0\.1(:\d+)?$`,
	`^https://.*\.vercel\.app$`,
	`^https://(www\.)?floreriawildgarden\.cl$`,
}

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists exact origins. "*" allows every origin. With neither
	// origins nor patterns configured every origin is allowed.
	AllowOrigins []string
	// AllowOriginPatterns are matched against origins that are not listed
	// exactly. See CompileOriginPatterns.
	AllowOriginPatterns []*regexp.Regexp

	// AllowMethods defaults to GET, HEAD, POST, PUT, PATCH, DELETE, OPTIONS.
	AllowMethods []string
	// AllowHeaders echoes Access-Control-Request-Headers when empty.
	AllowHeaders  []string
	ExposeHeaders []string

	// AllowCredentials disables the "*" response; the request origin is
	// echoed instead.
	AllowCredentials bool

	// MaxAge of preflight results in seconds. Zero omits the header, a
	// negative value sends "0".
	MaxAge int
}

// CompileOriginPatterns compiles origin regular expressions.
func CompileOriginPatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "compile origin pattern %q", p)
		}
		out = append(out, re)
	}
	return out, nil
}

type originPolicy struct {
	any      bool
	exact    map[string]string // lowercase -> configured spelling
	patterns []*regexp.Regexp
}

func newOriginPolicy(cfg CORSConfig) originPolicy {
	p := originPolicy{
		any:      len(cfg.AllowOrigins) == 0 && len(cfg.AllowOriginPatterns) == 0,
		exact:    make(map[string]string, len(cfg.AllowOrigins)),
		patterns: cfg.AllowOriginPatterns,
	}
	for _, o := range cfg.AllowOrigins {
		o = strings.TrimSpace(o)
		if o == "*" {
			p.any = true
			continue
		}
		if o != "" {
			p.exact[strings.ToLower(o)] = o
		}
	}
	return p
}

// allow returns the Access-Control-Allow-Origin value for origin, or "" when
// the origin is rejected.
func (p originPolicy) allow(origin string, credentials bool) string {
	if p.any {
		if credentials {
			return origin
		}
		return "*"
	}
	if o, ok := p.exact[strings.ToLower(origin)]; ok {
		return o
	}
	for _, re := range p.patterns {
		if re.MatchString(origin) {
			return origin
		}
	}
	return ""
}

// CORS handles preflight requests and sets CORS headers on actual requests.
// Origins that are not allowed get no CORS headers and preflights end with a
// bare 204.
func CORS(cfg CORSConfig) Middleware {
	policy := newOriginPolicy(cfg)
	wildcard := policy.any && !cfg.AllowCredentials

	allowMethods := strings.Join(cfg.AllowMethods, ", ")
	if allowMethods == "" {
		allowMethods = "GET, HEAD, POST, PUT, PATCH, DELETE, OPTIONS"
	}
	allowHeaders := strings.Join(cfg.AllowHeaders, ", ")
	exposeHeaders := strings.Join(cfg.ExposeHeaders, ", ")

	var maxAge string
	switch {
	case cfg.MaxAge > 0:
		maxAge = strconv.Itoa(cfg.MaxAge)
	case cfg.MaxAge < 0:
		maxAge = "0"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if !wildcard {
				h.Add("Vary", "Origin")
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			allowOrigin := policy.allow(origin, cfg.AllowCredentials)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if wildcard {
					h.Add("Vary", "Origin")
				}
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")

				if allowOrigin != "" {
					h.Set("Access-Control-Allow-Origin", allowOrigin)
					h.Set("Access-Control-Allow-Methods", allowMethods)
					if allowHeaders != "" {
						h.Set("Access-Control-Allow-Headers", allowHeaders)
					} else if rh := r.Header.Get("Access-Control-Request-Headers"); rh != "" {
						h.Set("Access-Control-Allow-Headers", rh)
					}
					if cfg.AllowCredentials {
						h.Set("Access-Control-Allow-Credentials", "true")
					}
					if maxAge != "" {
						h.Set("Access-Control-Max-Age", maxAge)
					}
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if allowOrigin != "" {
				h.Set("Access-Control-Allow-Origin", allowOrigin)
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if exposeHeaders != "" {
					h.Set("Access-Control-Expose-Headers", exposeHeaders)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
