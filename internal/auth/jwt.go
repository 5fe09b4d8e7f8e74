// Package auth provides login for the playground: GitHub OAuth for identity,
// JWT cookies for staying logged in, and middleware that puts the caller's
// user ID into the request context.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. User visits /auth/github/login → redirected to GitHub
//  2. GitHub calls back /auth/github/callback with a code
//  3. Server exchanges code for GitHub user info, upserts user in DB
//  4. Server issues a JWT, stores it in an HttpOnly cookie
//  5. On later requests, middleware validates the JWT and sets the userID in
//     the request context
//
// Logging in is optional. Anonymous visitors can render previews and save
// snippets; a login only adds ownership, so nobody else can edit yours.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims (data) → {"sub":"userID","exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/component-playground/internal/apperror"
)

const (
	// Issuer is written into and required from every token.
	Issuer = "component-playground"

	// TokenTTL is how long a login lasts. There are no refresh tokens: when
	// the cookie expires the user logs in with GitHub again.
	TokenTTL = 12 * time.Hour

	// MinSecretLength is the shortest HMAC secret NewTokenService accepts.
	MinSecretLength = 16
)

// TokenService handles JWT creation and validation with one HMAC secret.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a TokenService with the given secret.
// Example: PLAYGROUND_AUTH_JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, apperror.ValidationFailed("jwt_secret",
			fmt.Sprintf("JWT secret must be at least %d characters", MinSecretLength))
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// claims is the JWT payload. "sub" holds the internal user ID.
type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a token for userID that expires after TokenTTL.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, TokenTTL)
}

// GenerateWithDuration signs a token with a custom lifetime. Tests use it to
// mint tokens that are already expired.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("auth: cannot sign a token without a subject")
	}
	now := s.now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a JWT string and returns its subject.
// Every failure wraps apperror.ErrUnauthorized.
//
// ALGORITHM CONFUSION ATTACK:
// Without pinning the algorithm, a token signed with "none" (or with the
// secret used as an RSA public key) might be accepted. WithValidMethods
// rejects everything but HS256.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: %w", apperror.Unauthorized("token expired"))
		}
		return "", fmt.Errorf("auth: %w: %w", apperror.Unauthorized("invalid token"), err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return "", fmt.Errorf("auth: %w", apperror.Unauthorized("invalid token claims"))
	}
	return c.Subject, nil
}
