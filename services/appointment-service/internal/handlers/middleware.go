package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/johnhamson/summit-appointments/libs/auth"
	"github.com/johnhamson/summit-appointments/libs/httpx"
)

type ctxKey int

const ctxKeyAdmin ctxKey = iota

// AdminFromContext returns the admin username placed by RequireAdmin.
func AdminFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyAdmin).(string)
	return v
}

// RequireAdmin gates a route on a valid admin bearer token. It runs before
// any record lookup, so an unauthenticated caller always sees 401 and can
// never probe record existence.
func RequireAdmin(secret string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "missing or invalid Authorization header")
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			claims, err := auth.ParseAndVerifyHS256(token, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if claims.Role != "admin" {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyAdmin, claims.Sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
