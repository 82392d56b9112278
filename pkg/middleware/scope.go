// pkg/middleware/scope.go
package middleware

import (
	"net/http"
)

// RequireScope rejects requests whose identity lacks scope. Must run after Authenticate.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFrom(r.Context())
			if id.UserID == "" {
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}
			if !HasAnyScope(id.Scopes, []string{scope}) {
				http.Error(w, "insufficient_scope", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HasAnyScope returns true if granted holds at least one of the required scopes.
func HasAnyScope(granted, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := map[string]struct{}{}
	for _, s := range granted {
		set[s] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}
