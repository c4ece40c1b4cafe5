package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the values we store.
type contextKey string

const profileIDKey contextKey = "profileID"

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the JWT from the "token" HttpOnly cookie, validates it, and stores
// the profile ID in the request context. If the token is missing or invalid,
// it returns 401 Unauthorized and stops the request chain.
//
// The token lives in an HttpOnly cookie rather than localStorage or a header:
// JavaScript cannot read it, which keeps XSS from stealing the session.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profileID, err := extractProfileID(r, tokens)
			if err != nil {
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			ctx := ContextWithProfileID(r.Context(), profileID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth extracts the identity if a valid token is present, but does
// not block the request when it's missing or invalid. Used on public routes
// where a logged-in viewer might see extra affordances.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if profileID, err := extractProfileID(r, tokens); err == nil && profileID != "" {
				r = r.WithContext(ContextWithProfileID(r.Context(), profileID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContextWithProfileID stores an authenticated profile ID in the context.
// Handler tests use it to fake an authenticated request.
func ContextWithProfileID(ctx context.Context, profileID string) context.Context {
	return context.WithValue(ctx, profileIDKey, profileID)
}

// ProfileIDFromContext retrieves the authenticated profile's ID from the
// request context. Returns ("", false) if the request is anonymous.
func ProfileIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(profileIDKey).(string)
	return id, ok && id != ""
}

// extractProfileID reads the JWT cookie and validates it.
func extractProfileID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie("token")
	if err != nil {
		return "", err
	}

	return tokens.Validate(cookie.Value)
}
