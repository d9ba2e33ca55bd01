package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/goGuard/jwt"
)

type adminClaimsContextKey struct{}

// AdminClaimsFromContext returns the claims attached by RequireAdmin.
func AdminClaimsFromContext(ctx context.Context) (*jwt.AdminClaims, bool) {
	claims, ok := ctx.Value(adminClaimsContextKey{}).(*jwt.AdminClaims)
	return claims, ok
}

// RequireAdmin rejects requests without a valid bearer token carrying
// jwt.ScopeAdmin: 401 for a missing or invalid token, 403 for a valid token
// without the scope.
func RequireAdmin(manager *jwt.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}

			claims, err := manager.Authorize(token, jwt.ScopeAdmin)
			if err != nil {
				if errors.Is(err, jwt.ErrMissingScope) {
					writeJSONError(w, http.StatusForbidden, "forbidden")
					return
				}
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), adminClaimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
