package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/courseguardian/backend/libs/auth/service"
)

type contextKey string

const identityKey contextKey = "identity"

// AccessTokenValidator validates an access token and returns the caller identity
type AccessTokenValidator interface {
	ValidateAccessToken(token string) (service.Identity, error)
}

// AuthMiddleware validates JWT access token and stores the caller identity in the request context
func AuthMiddleware(validator AccessTokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := authenticate(w, r, validator)
			if !ok {
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// authenticate extracts and validates the token, writing a 401 response on failure
func authenticate(w http.ResponseWriter, r *http.Request, validator AccessTokenValidator) (service.Identity, bool) {
	token := extractToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return service.Identity{}, false
	}

	identity, err := validator.ValidateAccessToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return service.Identity{}, false
	}

	return identity, true
}

// extractToken reads the token from the Authorization header, falling back to the access_token cookie
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}

	cookie, err := r.Cookie("access_token")
	if err == nil {
		return cookie.Value
	}

	return ""
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}

// WithIdentity returns a copy of ctx carrying identity
func WithIdentity(ctx context.Context, identity service.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity retrieves the caller identity from context
func GetIdentity(ctx context.Context) (service.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(service.Identity)
	return identity, ok
}

// GetUserID retrieves the user ID from context
func GetUserID(ctx context.Context) (int, bool) {
	identity, ok := GetIdentity(ctx)
	return identity.UserID, ok
}
