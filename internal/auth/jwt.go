package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrClientMismatch is returned when a token was issued for another client.
var ErrClientMismatch = errors.New("token issued for a different client")

// ClientClaims represents the claims in a client token
type ClientClaims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// GenerateClientToken issues an HS256 token binding clientID for ttl.
func GenerateClientToken(secret []byte, clientID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &ClientClaims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates a client token and returns the claims
func ValidateToken(secret []byte, tokenString string) (*ClientClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ClientClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*ClientClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenInvalidClaims
}

// ValidateClientToken validates tokenString and checks it was issued for clientID.
func ValidateClientToken(secret []byte, tokenString, clientID string) (*ClientClaims, error) {
	claims, err := ValidateToken(secret, tokenString)
	if err != nil {
		return nil, err
	}
	if claims.ClientID != clientID {
		return nil, ErrClientMismatch
	}
	return claims, nil
}
