// Package auth mints and verifies operator bearer tokens and checks the
// single configured operator credential pair.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"windykator/internal/common"
)

// Claims carries the standard JWT claims plus the operator login the token
// was minted for.
type Claims struct {
	jwt.RegisteredClaims
	Login string
}

// GenerateToken mints an HS256 bearer token for the operator.
func GenerateToken(login string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		Login: login,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetLoginFromToken validates a bearer token and returns the operator login
// it was minted for.
func GetLoginFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.Login, nil
}
