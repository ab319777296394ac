// Package auth verifies federated sign-in tokens. The browser signs in with
// the identity provider; the service only checks the resulting JWT.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"trivia-arcade/internal/domain"
)

// TokenVerifier validates HS256-signed identity tokens and extracts the
// player's stable id, display name, and avatar URL.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

type identityClaims struct {
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// Verify returns the user carried by the token, or ErrNotAuthenticated for a
// missing, malformed, expired, or mis-signed token.
func (v *TokenVerifier) Verify(token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, domain.ErrNotAuthenticated
	}

	claims := &identityClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return domain.User{}, domain.ErrNotAuthenticated
	}

	name := claims.Name
	if name == "" {
		name = "Anonymous"
	}
	return domain.User{
		ID:       claims.Subject,
		Name:     name,
		PhotoURL: claims.Picture,
	}, nil
}
