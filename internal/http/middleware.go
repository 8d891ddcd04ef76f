package http

import (
	"context"
	"net/http"
	"strings"

	"pennywise/internal/core"
	"pennywise/internal/services"
)

type contextKey string

const userContextKey contextKey = "user"

// requireUser resolves the bearer token and stores the user in the request
// context; requests without a valid session get 401.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		user, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, r, services.ErrInvalidCredentials)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return ""
}

func userFrom(ctx context.Context) core.User {
	user, _ := ctx.Value(userContextKey).(core.User)
	return user
}
