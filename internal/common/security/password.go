package security

import (
	"errors"
	"fmt"

	"bandroom/internal/platform/config"

	"golang.org/x/crypto/bcrypt"
)

// ErrMalformedHash signals a corrupted stored digest, which is a different
// condition from a plain verification mismatch.
var ErrMalformedHash = errors.New("malformed password hash")

// HashPassword derives a salted bcrypt digest. The cost factor is fixed at
// process start; bcrypt generates a fresh random salt per call.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), config.AppConfig.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("security.HashPassword: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches digest. A mismatch is
// (false, nil); an error is returned only when the digest itself cannot be
// parsed. bcrypt's comparison runs in constant time.
func VerifyPassword(password, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
}
