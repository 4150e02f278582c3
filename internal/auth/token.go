// Package auth issues and checks operator tokens. Reads are public; any
// request that changes state (manual readings, training, listener
// control) needs a bearer token signed with the configured secret.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "farmtech"

// MinSecretLength is the shortest accepted signing secret in bytes.
const MinSecretLength = 32

var ErrSecretTooShort = fmt.Errorf("auth secret must be at least %d bytes", MinSecretLength)

// Claims holds the JWT payload for operator tokens.
type Claims struct {
	jwt.RegisteredClaims
	Operator string `json:"op"`
}

// TokenService signs and validates operator tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService with the given signing secret and
// token lifetime.
func NewTokenService(secret []byte, ttl time.Duration) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	return &TokenService{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue generates a signed token for operator. It returns the token and
// its expiry.
func (s *TokenService) Issue(operator string) (string, time.Time, error) {
	if operator == "" {
		return "", time.Time{}, errors.New("operator name is required")
	}
	now := s.now()
	expires := now.Add(s.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   operator,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			Issuer:    issuer,
		},
		Operator: operator,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign operator token: %w", err)
	}
	return signed, expires, nil
}

// Validate parses and validates an operator token, returning the claims.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Operator == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// GenerateSecret returns a random hex-encoded signing secret, used by
// setup when no secret is configured.
func GenerateSecret() (string, error) {
	b := make([]byte, MinSecretLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
