package httpapi

import (
	"context"
	"net/http"

	"github.com/avdeev/go_storefront/internal/domain"
)

type contextKey string

const userContextKey contextKey = "user"

// AuthMiddleware resolves the authenticated identity for the request. The
// storefront fronts a managed auth collaborator; here the identity arrives
// as trusted headers set by that layer (replace with real JWT validation
// when terminating auth in-process).
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
			return
		}

		user := domain.User{
			ID:    userID,
			Email: r.Header.Get("X-User-Email"),
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(domain.User)
	return user, ok
}
