package jwtauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	ErrUnknownAlgorithm = errors.New("unknown signing algorithm")
	ErrInvalidToken     = errors.New("invalid token")
)

// GetToken issues a signed token whose subject identifies the user and whose
// expiry is now plus ttl. Only HMAC algorithms are accepted.
func GetToken(subject string, ttl time.Duration, secret, algorithm string) (string, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownAlgorithm, algorithm)
	}

	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return "", fmt.Errorf("%w: %s is not an HMAC method", ErrUnknownAlgorithm, algorithm)
	}

	now := time.Now()

	claims := jwt.StandardClaims{
		Subject:   subject,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}

	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token error: %w", err)
	}

	return token, nil
}

// Validate verifies the token's signature and expiry and returns its subject.
func Validate(tokenString, secret string) (string, error) {
	claims := new(jwt.StandardClaims)

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, t.Header["alg"])
		}

		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token error: %w", err)
	}

	if !token.Valid {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
