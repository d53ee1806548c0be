// Package token issues and verifies the stateless bearer tokens clients use
// to assert an identity. Tokens are HS256 JWTs signed with a process-wide
// secret; they carry a username and issue time and do not expire.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that is malformed, tampered
// with, or signed with the wrong key or algorithm.
var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service signs and verifies session tokens.
type Service struct {
	secret []byte
}

// NewService creates a token service with the given signing secret.
func NewService(secret string) (*Service, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret must not be empty")
	}
	return &Service{secret: []byte(secret)}, nil
}

// Issue returns a signed token asserting username.
func (s *Service) Issue(username string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	})
	return t.SignedString(s.secret)
}

// Verify checks the signature of tokenString and returns the asserted
// username. It does not re-check that the user still exists. Any expected
// failure mode is ErrInvalidToken.
func (s *Service) Verify(tokenString string) (string, error) {
	var c claims
	t, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return "", ErrInvalidToken
	}
	if c.Username == "" {
		return "", ErrInvalidToken
	}
	return c.Username, nil
}
