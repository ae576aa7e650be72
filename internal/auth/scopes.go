package auth

import "net/http"

// ScopeUsersAdmin grants user administration.
const ScopeUsersAdmin = "users:admin"

// RequireScope rejects requests whose claims lack scope.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := FromContext(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, "unauthenticated", ErrMissingToken.Error())
				return
			}
			if !claims.HasScope(scope) {
				deny(w, http.StatusForbidden, "forbidden", "missing scope "+scope)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
