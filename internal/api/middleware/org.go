package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

// OrgKey is the context key for the organization scope.
const OrgKey contextKey = "org"

// OrgExtractor resolves the organization scope for a request. It checks
// the X-Org-Id header, then the org query parameter, and falls back to
// "default". Every downstream index and memory access is keyed by this
// value.
func OrgExtractor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		org := strings.TrimSpace(r.Header.Get("X-Org-Id"))
		if org == "" {
			org = strings.TrimSpace(r.URL.Query().Get("org"))
		}
		if org == "" {
			org = "default"
		}

		ctx := context.WithValue(r.Context(), OrgKey, org)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetOrg retrieves the organization scope from the request context.
func GetOrg(ctx context.Context) string {
	if v, ok := ctx.Value(OrgKey).(string); ok {
		return v
	}
	return "default"
}
