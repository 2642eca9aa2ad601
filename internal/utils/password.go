package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// NewDummyHash hashes random bytes at the given cost. Login compares
// against it when the email is unknown so both paths cost one bcrypt
// comparison.
func NewDummyHash(cost int) (string, error) {
	raw, err := randomHex(32)
	if err != nil {
		return "", err
	}
	return HashPassword(raw, cost)
}

// IsBcryptHash reports whether s looks like a bcrypt hash. Used to find
// legacy plaintext passwords that still need hashing.
func IsBcryptHash(s string) bool {
	if len(s) != 60 {
		return false
	}
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
