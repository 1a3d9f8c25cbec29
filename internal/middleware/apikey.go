package middleware

import (
	"context"
	"net/http"
	"strings"
)

type apiKeyContextKey struct{}

// UserAPIKeyHeader carries the caller's own model credential. It overrides
// every server-side key for that request.
const UserAPIKeyHeader = "X-User-Api-Key"

// UserAPIKey copies the personal-key header into the request context so the
// credential resolver can read it without seeing the request.
func UserAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := strings.TrimSpace(r.Header.Get(UserAPIKeyHeader)); key != "" {
			r = r.WithContext(context.WithValue(r.Context(), apiKeyContextKey{}, key))
		}
		next.ServeHTTP(w, r)
	})
}

// UserAPIKeyFromContext returns the caller-supplied key, or "".
func UserAPIKeyFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(apiKeyContextKey{}).(string); ok {
		return v
	}
	return ""
}
