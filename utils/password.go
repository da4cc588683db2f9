package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var hexHashPattern = regexp.MustCompile(`^[a-fA-F0-9]{64}$`)

// IsHashedForm reports whether s looks like the client-side deterministic
// hash form: exactly 64 hex characters.
func IsHashedForm(s string) bool {
	return hexHashPattern.MatchString(s)
}

// DeterministicHash is the client-side submission hash: sha256 hex.
func DeterministicHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// NormalizePassword canonicalizes a submitted password to its hashed form.
// Applied before storing so that a user who registered with one form can
// later sign in with the other.
func NormalizePassword(password string) string {
	if IsHashedForm(password) {
		return password
	}
	return DeterministicHash(password)
}

// HashPassword computes the stored adaptive hash over the normalized form.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(NormalizePassword(password)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword accepts either submission form as proof of the same
// secret. A 64-hex submission is compared directly; anything else is
// compared raw first (pre-normalization hashes stay verifiable) and then
// retried through the deterministic hash.
func VerifyPassword(submitted, storedHash string) bool {
	if IsHashedForm(submitted) {
		return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(submitted)) == nil
	}
	if bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(submitted)) == nil {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(DeterministicHash(submitted))) == nil
}
