package jwtauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoKey = errors.New("jwtauth: no signing key")

// Sign issues an HS256 operator token for sub signed with the current key.
func Sign(p KeyProvider, sub string, ttl time.Duration) (string, error) {
	kid := p.CurrentKID()
	sec, ok := p.SecretFor(kid)
	if !ok || len(sec) == 0 {
		return "", ErrNoKey
	}
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	tok.Header["kid"] = kid
	return tok.SignedString(sec)
}
