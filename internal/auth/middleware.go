package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"ecommerce-service/internal/domain"
)

// Identity is the authenticated caller attached to the request context by the
// Authenticate middleware.
type Identity struct {
	UserID int64
	Role   domain.Role
}

type contextKey struct{}

var identityKey contextKey

// IdentityFromContext returns the caller identity set by Authenticate.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// Authenticate verifies the "Authorization: Bearer <token>" header and puts
// the caller identity on the request context. Requests without a valid token
// are rejected with 401 before reaching the handler.
func (m *TokenManager) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			writeAuthError(w, http.StatusUnauthorized, "Authorization token required")
			return
		}

		identity, err := m.Verify(tokenString)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require gates a route on a policy action. Must run after Authenticate.
func Require(action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !IsAllowed(identity.Role, action) {
				writeAuthError(w, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
