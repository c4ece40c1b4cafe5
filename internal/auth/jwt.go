// Package auth provides GitHub OAuth and JWT session handling for the API.
//
// Flow overview:
//  1. User visits /auth/github/login → redirected to GitHub
//  2. GitHub calls back /auth/github/callback with a code
//  3. Server exchanges the code for the GitHub profile, upserts the profile
//     in the store, and keeps the access token for later repo imports
//  4. Server issues a JWT session token in an HttpOnly cookie
//  5. On API calls, middleware reads the cookie, validates the JWT, and sets
//     the profile ID in the request context
//
// JWTs are stateless: the profile ID and expiry live inside the signed token,
// so validation needs no store lookup; just the HMAC secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionDuration is how long a dashboard session stays valid. There is no
// refresh flow; after expiry the user signs in with GitHub again.
const SessionDuration = 24 * time.Hour

const issuer = "devlink"

// TokenService handles JWT creation and validation. It holds the HMAC secret
// used to sign and verify tokens.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. The standard "sub" (Subject) claim carries the
// internal profile ID.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given profile ID,
// valid for SessionDuration.
func (s *TokenService) Generate(profileID string) (string, error) {
	return s.GenerateWithDuration(profileID, SessionDuration)
}

// GenerateWithDuration creates a token with a custom expiry. Used in tests
// and anywhere a non-standard lifetime is needed.
func (s *TokenService) GenerateWithDuration(profileID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profileID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string, returning the profile ID from
// the "sub" claim.
//
// The jwt library checks the signature, the expiry, and the issuer. Passing
// jwt.WithValidMethods pins the algorithm to HS256, which prevents algorithm
// confusion attacks (e.g. a token claiming alg "none").
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	profileID := c.Subject
	if profileID == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return profileID, nil
}
