// Package auth carries the authenticated principal across the API boundary.
// Identity issuance and role assignment live outside this service; tokens
// arrive signed by the surrounding application and are only verified here.
package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Principal is the caller of an engine operation: an identity plus an
// explicit administrator capability.
type Principal struct {
	ID      int64
	Name    string
	IsAdmin bool
}

type claims struct {
	Name  string `json:"name,omitempty"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

// NewToken mints a signed HS256 token for the given principal. Used by the
// surrounding application and by tests; this service never stores
// credentials.
func NewToken(secret string, p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name:  p.Name,
		Admin: p.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString([]byte(secret))
}

// ParseToken verifies a bearer token and extracts the principal.
func ParseToken(secret, raw string) (Principal, error) {
	var c claims
	token, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return Principal{}, fmt.Errorf("invalid token")
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return Principal{}, fmt.Errorf("invalid subject %q: %w", c.Subject, err)
	}
	return Principal{ID: id, Name: c.Name, IsAdmin: c.Admin}, nil
}
