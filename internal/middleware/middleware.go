package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/amarw/wayfarer/backend/internal/model/user"
	"github.com/amarw/wayfarer/backend/internal/service/auth"
	"github.com/amarw/wayfarer/backend/pkg/utils"
)

type contextKey string

const userKey contextKey = "wayfarer.user"

// CORS allows the browser client to reach the API from any origin.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth resolves the bearer token and stashes the profile in the
// request context. WebSocket clients cannot set headers, so a token query
// parameter is accepted as well.
func RequireAuth(authSvc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				token = r.URL.Query().Get("token")
			}

			profile, ok := authSvc.CurrentUser(token)
			if !ok {
				utils.RespondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFrom returns the authenticated profile stored by RequireAuth.
func UserFrom(ctx context.Context) (user.Profile, bool) {
	profile, ok := ctx.Value(userKey).(user.Profile)
	return profile, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
