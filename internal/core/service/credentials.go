package service

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/workforce/employee-directory/internal/core/domain"
)

const (
	PasswordModePlain  = "plain"
	PasswordModeBcrypt = "bcrypt"
)

// SecretMatcher turns a submitted password into its stored form and checks
// login attempts against it.
type SecretMatcher interface {
	Seal(password string) (string, error)
	Match(stored, attempt string) bool
}

// NewSecretMatcher returns the matcher for mode. An empty mode means plain.
func NewSecretMatcher(mode string) (SecretMatcher, error) {
	switch mode {
	case "", PasswordModePlain:
		return plainMatcher{}, nil
	case PasswordModeBcrypt:
		return bcryptMatcher{cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("unknown password mode %q", mode)
	}
}

// plainMatcher stores the password as given and compares exactly.
type plainMatcher struct{}

func (plainMatcher) Seal(password string) (string, error) {
	return password, nil
}

func (plainMatcher) Match(stored, attempt string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(attempt)) == 1
}

type bcryptMatcher struct {
	cost int
}

func (m bcryptMatcher) Seal(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.InvalidInputf("password must not exceed 72 bytes")
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (bcryptMatcher) Match(stored, attempt string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(attempt)) == nil
}
