package handlers

import (
	"context"
	"net/http"

	"github.com/medlabel/apiserver/internal/services"
)

const basicAuthRealm = `Basic realm="medlabel", charset="UTF-8"`

// RequireBasicAuth enforces HTTP Basic authentication on every request.
// No credential state persists between requests; each one re-verifies
// against the stored bcrypt hash. The response never reveals whether the
// username exists.
func RequireBasicAuth(userService *services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				unauthorized(w)
				return
			}

			user, err := userService.Authenticate(r.Context(), username, password)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), contextUsernameKey, user.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", basicAuthRealm)
	writeError(w, http.StatusUnauthorized, "unauthorized")
}
