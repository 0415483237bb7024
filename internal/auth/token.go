package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Lairnan/LairnanChat/internal/chat"
)

// ErrInvalidToken is returned for expired, malformed, or mis-signed tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload minted for the HTTP API: the session user plus
// registered claims.
type Claims struct {
	UserID   string `json:"uid"`
	UserName string `json:"userName"`
	Language string `json:"language"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 access tokens.
type TokenIssuer struct {
	secret   []byte
	validity time.Duration
}

// NewTokenIssuer creates an issuer signing with the given secret. A zero
// validity defaults to 24 hours.
func NewTokenIssuer(secret string, validity time.Duration) *TokenIssuer {
	if validity <= 0 {
		validity = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), validity: validity}
}

// Generate signs a token for the user.
func (t *TokenIssuer) Generate(user *chat.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   user.ID.String(),
		UserName: user.UserName,
		Language: user.Language,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "lairnanchat",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.validity)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token, returning its claims.
func (t *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
