package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/bibforms/forms-api/internal/models"
)

const userKey = contextKey("authenticated-user")

// TokenVerifier validates a bearer token and resolves the caller identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.AuthenticatedUser, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller identity in the request context.
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			http.Error(w, "Missing authorization header", http.StatusUnauthorized)
			return
		}

		user, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), *user)))
	}
}

// RequireAdmin rejects authenticated callers that do not hold the admin role.
func (m *AuthMiddleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok || !user.IsAdmin() {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// OptionalAuth attaches the caller identity when a valid token is present and
// continues anonymously otherwise.
func (m *AuthMiddleware) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			if user, err := m.verifier.Verify(r.Context(), token); err == nil {
				r = r.WithContext(WithUser(r.Context(), *user))
			}
		}
		next.ServeHTTP(w, r)
	}
}

// WithUser returns a context carrying the caller identity.
func WithUser(ctx context.Context, user models.AuthenticatedUser) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext extracts the authenticated caller from the context.
func UserFromContext(ctx context.Context) (models.AuthenticatedUser, bool) {
	user, ok := ctx.Value(userKey).(models.AuthenticatedUser)
	return user, ok
}
