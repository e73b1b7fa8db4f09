package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "parley"

// SessionClaims is the payload of a session token.
type SessionClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 session tokens.
type TokenManager struct {
	secret   []byte
	lifetime time.Duration
}

func NewTokenManager(secret string, lifetime time.Duration) TokenManager {
	return TokenManager{secret: []byte(secret), lifetime: lifetime}
}

// Issue signs a session token for the user.
func (m TokenManager) Issue(userID, username string) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses tokenString and returns its claims if the signature and
// expiry check out.
func (m TokenManager) Verify(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return m.secret, nil
		})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}
