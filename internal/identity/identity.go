// Package identity resolves the authenticated user from a bearer token.
// Read-only to the rest of the system: the resolver treats the result as input.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mealscan/entitled/internal/errs"
	"github.com/mealscan/entitled/internal/model"
)

// Claims are the token claims this service reads: subject is the stable
// user id, email is optional.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Provider verifies HS256 bearer tokens issued by the app's auth backend
// and extracts the user identity.
type Provider struct {
	key    []byte
	leeway time.Duration
}

// NewProvider constructs a provider with the shared signing key.
func NewProvider(key []byte) *Provider {
	return &Provider{key: key, leeway: 30 * time.Second}
}

// FromToken parses and validates a bearer token. An invalid, expired, or
// subject-less token maps to ErrUnauthenticated.
func (p *Provider) FromToken(token string) (model.Identity, error) {
	if token == "" {
		return model.Identity{}, errs.ErrUnauthenticated
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.key, nil
	}, jwt.WithLeeway(p.leeway))
	if err != nil || !parsed.Valid {
		return model.Identity{}, errors.Join(errs.ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return model.Identity{}, errs.ErrUnauthenticated
	}
	return model.Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

// Issue creates a signed token for the given identity, valid for ttl.
// Used by tests and local tooling; production tokens come from the auth backend.
func (p *Provider) Issue(id model.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.key)
}
