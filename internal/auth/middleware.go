package auth

import (
	"net/http"
	"strings"

	"github.com/noah-isme/backend-trek/internal/common"
)

// RequireAuth verifies the bearer token and places the caller's identity on
// the request context.
func RequireAuth(v *TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing bearer token", nil)
				return
			}
			id, err := v.Validate(raw)
			if err != nil {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid or expired token", nil)
				return
			}
			ctx := common.WithUserID(r.Context(), id.UserID)
			ctx = common.WithRoles(ctx, id.Roles)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a subtree on a role claim. Mount inside RequireAuth.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !common.HasRole(r.Context(), role) {
				common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient privileges", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
