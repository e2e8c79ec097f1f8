// Package auth provides password login, sessions, and rate limiting
// for the web UI.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost factor. At cost 12 a hash takes roughly
// 250ms on current hardware, which also throttles online guessing.
const DefaultCost = 12

var (
	// ErrEmptyPassword is returned when hashing or verifying an empty password.
	ErrEmptyPassword = errors.New("auth: password cannot be empty")

	// ErrPasswordMismatch is returned when verification fails. It does not
	// distinguish a wrong password from a malformed hash.
	ErrPasswordMismatch = errors.New("auth: password does not match")

	// ErrInvalidHash is returned when the stored hash is not a bcrypt hash.
	ErrInvalidHash = errors.New("auth: invalid password hash format")
)

// HashPassword creates a bcrypt hash of the password. The hash embeds a
// random salt and the cost factor, so it can be stored as-is.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a bcrypt hash in
// constant time. Returns nil on match, ErrPasswordMismatch otherwise.
func VerifyPassword(password, hash string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if hash == "" {
		return ErrInvalidHash
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		// Malformed hashes also report a mismatch so callers cannot
		// probe hash validity.
		return ErrPasswordMismatch
	}
	return nil
}

// IsValidHash reports whether the string parses as a bcrypt hash.
// It does not verify any password.
func IsValidHash(hash string) bool {
	_, err := bcrypt.Cost([]byte(hash))
	return err == nil
}
