// Package auth provides password hashing, JWT issuance/verification and the
// bearer-token middleware for the API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. Client POSTs {"email","senha"} to /api/auth/login
//  2. AuthService looks the user up, verifies the bcrypt digest, and asks
//     TokenService for a signed token carrying {id, email}
//  3. Client sends `Authorization: Bearer <token>` on protected routes
//  4. RequireAuth validates the token and stores the Claims in the request
//     context; handlers read them with ClaimsFromContext / UserIDFromContext
//
// JWT STRUCTURE (three base64url parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:  {"alg":"HS256","typ":"JWT"}
//	- Payload: {"id":7,"email":"a@x.com","sub":"7","exp":...,"iat":...,"jti":"...","iss":"plantando-api"}
//	- Signature: HMAC-SHA256(header+"."+payload, JWT_SECRET)
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is written to and required in every token.
const Issuer = "plantando-api"

// DefaultTokenTTL is used when no expiry is configured.
const DefaultTokenTTL = time.Hour

var (
	// ErrMissingSecret means the server was started without JWT_SECRET.
	// Both signing and verification fail with it; callers treat it as a
	// configuration fault (500), never as a client fault.
	ErrMissingSecret = errors.New("auth: JWT secret is not configured")
	ErrTokenExpired  = errors.New("auth: token expired")
	ErrTokenInvalid  = errors.New("auth: invalid token")
)

// Claims is the JWT payload.
//
// UserID and Email are the application claims ("id" and "email" on the wire).
// The embedded RegisteredClaims carries sub/exp/iat/jti/iss.
type Claims struct {
	UserID int64  `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService handles JWT creation and validation with an HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. An empty secret is accepted so the
// server can start, but every Generate/Validate call then fails with
// ErrMissingSecret. A non-positive ttl falls back to DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Configured reports whether a signing secret is present.
func (s *TokenService) Configured() bool {
	return len(s.secret) > 0
}

// TTL returns the lifetime of tokens issued by Generate.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Generate creates and signs a token for the given user with the configured TTL.
func (s *TokenService) Generate(userID int64, email string) (string, error) {
	return s.GenerateWithDuration(userID, email, s.ttl)
}

// GenerateWithDuration creates a token with a custom lifetime. Tests use a
// negative duration to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID int64, email string, d time.Duration) (string, error) {
	if !s.Configured() {
		return "", ErrMissingSecret
	}

	now := time.Now()
	c := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    Issuer,
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token and returns its claims.
//
// ERROR CLASSES:
//   - ErrMissingSecret: server misconfiguration
//   - ErrTokenExpired:  exp is in the past
//   - ErrTokenInvalid:  malformed, bad signature, wrong issuer/alg, missing id
//   - anything else (e.g. a token whose nbf is in the future) is returned
//     wrapped and classified by the caller as an internal failure
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	if !s.Configured() {
		return nil, ErrMissingSecret
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(*jwt.Token) (any, error) {
			return s.secret, nil
		},
		// Only HS256 is accepted, which also rules out "alg":"none".
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, fmt.Errorf("auth: token not active yet: %w", err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: unexpected claims", ErrTokenInvalid)
	}
	if c.UserID <= 0 {
		return nil, fmt.Errorf("%w: token has no user id", ErrTokenInvalid)
	}

	return c, nil
}
