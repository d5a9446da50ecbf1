package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/upliftai/uplift/pkg/models"
)

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a stored hash against a plaintext candidate.
func VerifyPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return models.NewUnauthorizedError("invalid credentials")
	}
	return nil
}
