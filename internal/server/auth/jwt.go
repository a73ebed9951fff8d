// Package auth contains JWT helpers for session access tokens.
package auth

import (
	"time"

	"github.com/anfelyns/Password-Guardian-sub000/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims bundles the registered claims with the user id the token was
// minted for.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// GenerateToken mints an HS256 access token for userID, valid for
// validityDuration.
func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
	})
	return token.SignedString(secretKey)
}

// GetUserIDFromToken parses and validates a token and returns the user
// id it carries. Invalid or expired tokens fail with
// common.ErrInvalidToken.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", common.ErrInvalidToken
	}
	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}
