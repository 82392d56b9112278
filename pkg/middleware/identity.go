// pkg/middleware/identity.go
package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"cpwidget/pkg/config"
)

// Identity is the end user a request acts for.
type Identity struct {
	UserID string
	Email  string
	Scopes []string
}

type ctxIdentityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey{}, id)
}

// IdentityFrom returns the request identity; the zero value means anonymous.
func IdentityFrom(ctx context.Context) Identity {
	if v, ok := ctx.Value(ctxIdentityKey{}).(Identity); ok {
		return v
	}
	return Identity{}
}

// jwksCache caches JWKS sets per URL.
type jwksCache struct {
	mu   sync.RWMutex
	sets map[string]cachedJWKS
}

type cachedJWKS struct {
	set     jwk.Set
	expires time.Time
}

func (c *jwksCache) get(ctx context.Context, url string, ttl time.Duration) (jwk.Set, error) {
	c.mu.RLock()
	if e, ok := c.sets[url]; ok && time.Now().Before(e.expires) {
		c.mu.RUnlock()
		return e.set, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sets == nil {
		c.sets = map[string]cachedJWKS{}
	}
	if e, ok := c.sets[url]; ok && time.Now().Before(e.expires) {
		return e.set, nil
	}
	set, err := jwk.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	c.sets[url] = cachedJWKS{set: set, expires: time.Now().Add(ttl)}
	return set, nil
}

// Authenticate populates the request Identity.
//
// With OIDC configured, a bearer token is verified against the JWKS and
// sub/email/scope claims are used. Without it (dev only), the X-User-ID,
// X-User-Email and X-Scopes headers are trusted. Requests carrying no
// credentials continue anonymously: the widget then renders without a token.
func Authenticate(cfg config.Config) func(http.Handler) http.Handler {
	cache := &jwksCache{}
	jwksTTL := 6 * time.Hour
	issuer := strings.TrimRight(cfg.Issuer, "/")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if issuer == "" || cfg.JWKSURL == "" {
				if cfg.Env == "dev" {
					id := Identity{
						UserID: r.Header.Get("X-User-ID"),
						Email:  r.Header.Get("X-User-Email"),
						Scopes: strings.Fields(r.Header.Get("X-Scopes")),
					}
					next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
					return
				}
				if authz != "" {
					http.Error(w, "auth not configured", http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			if authz == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			set, err := cache.get(r.Context(), cfg.JWKSURL, jwksTTL)
			if err != nil {
				http.Error(w, "jwks fetch failed", http.StatusInternalServerError)
				return
			}
			parseOpts := []jwt.ParseOption{jwt.WithKeySet(set), jwt.WithIssuer(issuer), jwt.WithValidate(true), jwt.WithVerify(true)}
			if cfg.Audience != "" {
				parseOpts = append(parseOpts, jwt.WithAudience(cfg.Audience))
			}
			jt, err := jwt.Parse([]byte(strings.TrimSpace(authz[len("Bearer "):])), parseOpts...)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identityFromToken(jt))))
		})
	}
}

func identityFromToken(jt jwt.Token) Identity {
	id := Identity{UserID: jt.Subject()}
	if v, ok := jt.Get("email"); ok {
		id.Email, _ = v.(string)
	}
	if sc, ok := jt.Get("scope"); ok {
		if s, _ := sc.(string); s != "" {
			id.Scopes = strings.Fields(s)
		}
	}
	return id
}
