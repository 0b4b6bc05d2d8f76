package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"accountd/internal/common"
)

// resetNonceBytes is the entropy of the per-issuance nonce (jti claim).
const resetNonceBytes = 32

// ResetClaims is the payload of a password-reset token. The nonce lives in
// the registered ID (jti) claim; the audience marks the reset purpose.
type ResetClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// GenerateResetToken mints a reset token for the given account id. Every call
// embeds a fresh random nonce, so two issuances for the same user always
// produce different tokens.
func GenerateResetToken(userID string, secretKey []byte, method jwt.SigningMethod, validityDuration time.Duration) (string, error) {
	nonce, err := common.MakeRandHexString(resetNonceBytes)
	if err != nil {
		return "", err
	}

	now := time.Now()
	token := jwt.NewWithClaims(method, ResetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        nonce,
			Audience:  jwt.ClaimStrings{audienceReset},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: userID,
	})

	return token.SignedString(secretKey)
}

// GetUserIDFromResetToken validates a reset token and returns the embedded
// account id. The contract is soft-fail: malformed, expired, wrongly signed
// or wrong-purpose tokens all yield ("", false) and nothing else, so callers
// cannot tell the failure modes apart.
func GetUserIDFromResetToken(tokenString string, secretKey []byte, method jwt.SigningMethod) (string, bool) {
	claims := &ResetClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return secretKey, nil
		},
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithAudience(audienceReset),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return "", false
	}

	if claims.UserID == "" || claims.ID == "" {
		return "", false
	}

	return claims.UserID, true
}
