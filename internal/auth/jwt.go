// Package auth covers who the caller is: session tokens, the identity
// providers users sign in with, and the middleware that turns a session
// cookie back into a user id.
//
// Session flow:
//  1. A Provider authenticates a Credential and returns an Identity.
//  2. The service layer upserts a local user for that identity.
//  3. TokenService issues a JWT whose subject is the local user id.
//  4. The handler stores it in the HttpOnly "token" cookie.
//  5. RequireAuth / OptionalAuth validate it on later requests and put the
//     user id in the request context.
//
// WHY JWT?
// Sessions are stateless: the token carries the user id and expiry and is
// signed with JWT_SECRET, so validating it needs no database lookup. Logout
// only clears the cookie.
//
// TOKEN SHAPE (three base64url parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:    {"alg":"HS256","typ":"JWT"}
//	- Payload:   {"iss":"ysws-hunt","sub":"<user id>","iat":...,"exp":...}
//	- Signature: HMAC-SHA256(header + "." + payload, secret)
//
// Validate accepts only HS256 with our issuer and a present expiry, so a
// token signed with "none" or minted for another service is rejected.
//
// PROVIDERS:
// PasswordProvider (bcrypt hashes in the credentials table) and
// GitHubProvider (OAuth code exchange) both implement Provider. Which ones
// are active is configuration (AUTH_PROVIDERS); the rest of the app only
// sees an Identity.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "ysws-hunt"

// MinSecretLength is the shortest HMAC secret NewTokenService accepts.
const MinSecretLength = 16

// ErrInvalidToken is returned by Validate for any token that cannot be
// trusted: bad signature, wrong issuer, expired, or malformed.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenService signs and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. Tokens from Generate live for ttl.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", MinSecretLength)
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token TTL must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is how long tokens from Generate stay valid. Handlers use it as the
// cookie max-age.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Generate issues a token for userID with the configured lifetime.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration issues a token that expires after d. A negative d
// yields an already expired token, which tests use.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		Issuer:    issuer,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies tokenStr and returns the user id in its subject.
// Only HS256 is accepted; "none" and asymmetric algorithms are rejected.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: expired", ErrInvalidToken)
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || c.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return c.Subject, nil
}
