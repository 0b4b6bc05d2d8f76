package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"accountd/internal/common"
)

// Audience values keep the two token kinds apart even though they share a
// signing secret: a reset token must never pass where a session token is
// expected and vice versa.
const (
	audienceSession = "access"
	audienceReset   = "password_reset"
)

// MethodFromName resolves a configured algorithm name to a signing method.
// Unknown names are a configuration error.
func MethodFromName(name string) (jwt.SigningMethod, error) {
	switch name {
	case "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("%w: unknown signing method %q", common.ErrorConfiguration, name)
	}
}

// GenerateToken mints a signed session token carrying the subject (the
// account email) with exp = now + validityDuration.
func GenerateToken(subject string, secretKey []byte, method jwt.SigningMethod, validityDuration time.Duration) (string, error) {
	if len(secretKey) == 0 {
		return "", fmt.Errorf("%w: empty signing secret", common.ErrorConfiguration)
	}

	now := time.Now()
	token := jwt.NewWithClaims(method, jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audienceSession},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetSubjectFromToken verifies signature, expiry, audience and algorithm, and
// returns the subject claim. Failures collapse to two sentinels: expiry maps
// to common.ErrTokenExpired, everything else (bad signature, malformed input,
// wrong purpose, missing claims) to common.ErrInvalidToken. Callers must
// treat both as "unauthenticated".
func GetSubjectFromToken(tokenString string, secretKey []byte, method jwt.SigningMethod) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return secretKey, nil
		},
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithAudience(audienceSession),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
