package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateJWT signs a bearer token carrying the verified identity.
func GenerateJWT(secret string, userID int, userName string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"userId":   userID,
		"userName": userName,
		"exp":      time.Now().Add(ttl).Unix(),
		"iat":      time.Now().Unix(),
		"iss":      "messenger-backend",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseJWT verifies a bearer token and returns the identity it carries.
// Any failure (bad signature, expiry, missing claims) yields an error; the
// caller treats them all as an authentication failure.
func ParseJWT(secret, tokenStr string) (int, string, error) {
	if tokenStr == "" {
		return 0, "", errors.New("token is empty")
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errors.New("invalid claims")
	}

	userIDF, ok1 := claims["userId"].(float64)
	userName, ok2 := claims["userName"].(string)
	if !ok1 || !ok2 || userIDF == 0 || userName == "" {
		return 0, "", errors.New("missing identity claims")
	}

	return int(userIDF), userName, nil
}
