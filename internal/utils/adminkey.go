package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost   = 12
	MinKeyLength = 12
)

// HashAdminKey produces the bcrypt hash stored in ADMIN_API_KEY_HASH.
// Exposed for the ops workflow that rotates the admin key.
func HashAdminKey(key string) (string, error) {
	if len(key) < MinKeyLength {
		return "", fmt.Errorf("admin key must be at least %d characters long", MinKeyLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckAdminKey compares a presented key against the stored hash.
func CheckAdminKey(hashedKey, key string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedKey), []byte(key))
	return err == nil
}
