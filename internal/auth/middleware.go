package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/aster-app/aster/internal/models"
)

type contextKey string

const userContextKey = contextKey("currentUser")

// UserResolver loads a user by username. It lets the middleware re-fetch the
// token subject without depending on the service layer directly.
type UserResolver func(ctx context.Context, username string) (models.User, error)

// UserFromContext returns the authenticated user stored by CurrentUser.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	http.Error(w, "Could not validate credentials", http.StatusUnauthorized)
}

// CurrentUser returns a middleware that requires a valid bearer token and
// resolves its subject to a live user row. A token for a user that no longer
// exists is rejected; there is no caching in between.
func CurrentUser(issuer *TokenIssuer, resolve UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenStr, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || tokenStr == "" {
				unauthorized(w)
				return
			}

			username, err := issuer.Parse(tokenStr)
			if err != nil {
				unauthorized(w)
				return
			}

			user, err := resolve(r.Context(), username)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentActiveUser behaves like CurrentUser but additionally rejects accounts
// that have not been activated.
func CurrentActiveUser(issuer *TokenIssuer, resolve UserResolver) func(http.Handler) http.Handler {
	requireUser := CurrentUser(issuer, resolve)
	return func(next http.Handler) http.Handler {
		return requireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || !user.IsActive {
				http.Error(w, "Inactive user", http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
