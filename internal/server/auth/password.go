// Package auth implements the credential primitives of the service: one-way
// password hashing and the two token codecs (session and password-reset).
// Everything here is a pure function of its inputs; secrets are passed in by
// the caller and never retained.
package auth

import "golang.org/x/crypto/bcrypt"

// maxPasswordBytes is the number of password bytes bcrypt signs. Longer
// inputs are truncated before hashing and verification so that any password
// hashes successfully and verifies against its own hash.
const maxPasswordBytes = 72

func truncatePassword(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

// HashPassword derives a one-way hash from a plaintext password. The output
// is self-describing: algorithm, cost and salt are embedded in the string.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncatePassword(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash. A malformed
// hash yields false rather than an error; the comparison itself does not
// short-circuit on a prefix mismatch.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncatePassword(password)) == nil
}
