package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jason-s-yu/courtside/internal/auth"
	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

// RequireAuth rejects requests without a valid session token and stores the
// token's user id on the request context.
func RequireAuth(logger logrus.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromRequest(r)
			if err != nil {
				unauthorized(w)
				return
			}
			userID, err := auth.AuthenticateJWT(token)
			if err != nil {
				logger.WithError(err).WithField("path", r.URL.Path).Debug("rejected session token")
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the authenticated user id stored by RequireAuth.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
