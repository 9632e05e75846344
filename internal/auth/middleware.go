package auth

import (
	"net/http"
	"strings"

	"github.com/noah-isme/backend-invoice/internal/common"
	"github.com/noah-isme/backend-invoice/internal/obs"
)

// Middleware guards routes with bearer tokens issued by Service.
type Middleware struct {
	Service *Service
}

// RequireAuth rejects requests without a valid bearer token with 401 and
// stores the token subject as the request's user id.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Service == nil {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		userID, err := m.Service.ParseAccessToken(bearer(r.Header.Get("Authorization")))
		if err != nil {
			common.WriteError(w, r, err)
			return
		}
		obs.SetUser(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(common.WithUserID(r.Context(), userID)))
	})
}

// RequireRole re-reads the account on every request, so revoked roles and
// deactivations apply before the access token expires. It must run after
// RequireAuth.
func (m Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			msg := "forbidden"
			if userID, ok := common.UserID(r.Context()); ok && m.Service != nil {
				user, err := m.Service.Me(r.Context(), userID)
				if err == nil && user.Active && user.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
				if err == nil {
					msg = "insufficient permissions"
				}
			}
			common.JSONError(w, http.StatusForbidden, "FORBIDDEN", msg, nil)
		})
	}
}

func bearer(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
