package middleware

import (
	"context"
	"net/http"
)

const userIDKey contextKey = "user_id"

// IdentityMiddleware pulls the authenticated user ID from the X-User-ID
// header set by the auth layer in front of this service. The value is
// trusted unconditionally: authentication itself is not this service's
// concern. Requests without an identity are rejected.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			http.Error(w, "missing X-User-ID header", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID extracts the authenticated user ID from context.
func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDKey).(string); ok {
		return userID
	}
	return ""
}
