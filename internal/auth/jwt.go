// Package auth provides the primitives behind login: bcrypt password hashing,
// signing of the session cookie, and the request-scoped caller identity.
//
// SESSION COOKIE FORMAT:
// Sessions live server-side; the browser only carries a reference. That
// reference is an HS256 JWT whose "sub" is the session id and whose "exp" is
// the session expiry:
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Payload: {"iss":"blog","sub":"<session id>","exp":...,"iat":...}
//
// WHY SIGN THE COOKIE AT ALL?
// A bare session id would work, since the store decides who is logged in. The
// signature adds a cheap first gate: a guessed or edited value is rejected by
// an HMAC check in memory, and the database only sees ids we issued ourselves.
//
// LOGIN FLOW:
//
//	=== STEP 1: POST /login ===
//	Password checked against the bcrypt hash, session row created.
//
//	=== STEP 2: Set-Cookie ===
//	Sign turns the session id into a token; the cookie carries it.
//
//	=== STEP 3: every later request ===
//	Verify checks signature and expiry, then the session row is loaded.
//
// A forged or tampered cookie fails Verify before any store lookup. Logging
// out deletes the server-side row, so a still-valid signature is useless
// afterwards.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "blog"

// MinSecretLength is the shortest accepted signing secret.
const MinSecretLength = 16

// TokenService signs and verifies session cookie values.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// Example: SESSION_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: session secret must be at least %d characters", MinSecretLength)
	}
	return &TokenService{secret: []byte(secret)}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Sign returns a signed token naming sessionID that expires at expiresAt.
func (s *TokenService) Sign(sessionID string, expiresAt time.Time) (string, error) {
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses a token and returns the session id it names.
//
// Only HS256 tokens from this issuer with an expiry are accepted; pinning
// the method rules out "alg":"none" tokens.
func (s *TokenService) Verify(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
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
	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
