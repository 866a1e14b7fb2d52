package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies to every identity, admins included.
const MinPasswordLength = 6

var (
	ErrPasswordTooShort = errors.New("auth: password too short")
	ErrPasswordMismatch = errors.New("auth: password mismatch")
)

// Passwords hashes and verifies identity passwords.
type Passwords struct {
	cost int
}

// NewPasswords falls back to bcrypt's default cost when cost is out of range.
func NewPasswords(cost int) Passwords {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return Passwords{cost: cost}
}

// ValidatePassword checks the length rule without hashing.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// Hash validates password and returns its bcrypt hash.
func (p Passwords) Hash(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify returns ErrPasswordMismatch for a wrong password. A malformed
// stored hash is reported as is.
func (p Passwords) Verify(hashed, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}
