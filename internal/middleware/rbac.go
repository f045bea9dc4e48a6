package middleware

import (
	"net/http"
)

// RequireOrganization only lets the given organization through. It is used to
// restrict approval routes to the reviewing office.
func RequireOrganization(code string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			org, ok := GetOrganizationCode(r)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "Organization not authenticated")
				return
			}
			if org != code {
				respondWithError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
