package middleware

import (
	"context"
	"net/http"

	"ieeesou/internal/auth"
	"ieeesou/pkg/logger"
)

type contextKey string

const UserIDKey contextKey = "userID"

type Verifier interface {
	Verify(token string) (*auth.Claims, error)
}

// UserID returns the authenticated user stored by AuthMiddleware or RequireAdmin.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}

// AuthMiddleware rejects requests without a valid session token with 401.
// It guards the JSON API and the admin WebSocket.
func AuthMiddleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := auth.TokenFromRequest(r)
			if tokenString == "" {
				http.Error(w, "Unauthorized: No token provided", http.StatusUnauthorized)
				return
			}
			claims, err := v.Verify(tokenString)
			if err != nil {
				logger.Sugar.Warnf("Invalid token: %v", err)
				http.Error(w, "Unauthorized: Invalid or expired token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin is AuthMiddleware for pages: visitors without a session are
// redirected to the sign-in page instead of getting an error.
func RequireAdmin(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := auth.TokenFromRequest(r)
			if tokenString == "" {
				http.Redirect(w, r, auth.SignInPath, http.StatusSeeOther)
				return
			}
			claims, err := v.Verify(tokenString)
			if err != nil {
				http.Redirect(w, r, auth.SignInPath, http.StatusSeeOther)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
