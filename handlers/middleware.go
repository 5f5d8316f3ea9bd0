package handlers

import (
	"context"
	"net/http"
	"strings"

	"messenger-backend/services"
)

// contextKey is unexported so values set here cannot collide with other
// packages.
type contextKey string

const userIDKey contextKey = "userId"

// UserIDFromContext returns the authenticated user's id stashed by WithAuth.
func UserIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(userIDKey).(int)
	return id, ok
}

// WithAuth verifies the bearer token and confirms the user still exists
// before handing off; a token for a deleted user is rejected.
func WithAuth(auth *services.AuthService, users *services.UserService, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" {
			respondWithError(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		userID, _, err := auth.VerifyToken(token)
		if err != nil {
			respondWithError(w, "invalid token", http.StatusUnauthorized)
			return
		}

		user, err := users.FindByID(r.Context(), userID)
		if err != nil || user == nil {
			respondWithError(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}
