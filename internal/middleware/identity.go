package middleware

import (
	"context"
	"net/http"
)

// userIDKey is the context key for the authenticated user ID. Unexported so
// only this package can write it.
type userIDKey struct{}

// NewIdentityHandler returns a middleware that reads the X-User-ID header set
// by the upstream auth gateway and places it in the request context.
// Authentication itself happens upstream; a request that reaches this server
// without the header is rejected with 401.
func NewIdentityHandler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-User-ID")
			if userID == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":{"code":"unauthorized","message":"X-User-ID header required"}}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a context carrying the user ID. Exported for handler tests.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserID returns the user ID stored by NewIdentityHandler, or "" when absent.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}
