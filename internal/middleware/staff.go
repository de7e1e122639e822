package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"goldtrader/internal/models"
)

type UserLookup interface {
	GetByID(ctx context.Context, userID string) (models.User, error)
}

// RequireStaff lets through only authenticated users flagged is_staff.
func RequireStaff(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			user, err := users.GetByID(r.Context(), userID)
			if errors.Is(err, sql.ErrNoRows) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if err != nil {
				writeError(w, http.StatusInternalServerError, "unable to verify staff")
				return
			}
			if !user.IsStaff {
				writeError(w, http.StatusForbidden, "staff privileges required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
