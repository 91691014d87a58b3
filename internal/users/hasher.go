package users

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns a password into the credential stored in users.txt
// and checks a password against a stored credential.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(stored, password string) bool
}

// Hashing modes accepted by NewHasher.
const (
	ModeBcrypt    = "bcrypt"
	ModePlaintext = "plaintext"
)

// NewHasher returns the hasher for a configured mode.
func NewHasher(mode string, cost int) (PasswordHasher, error) {
	switch mode {
	case ModeBcrypt, "":
		return BcryptHasher{Cost: cost}, nil
	case ModePlaintext:
		return PlaintextHasher{}, nil
	default:
		return nil, fmt.Errorf("unknown password hashing mode %q", mode)
	}
}

// BcryptHasher stores bcrypt hashes. Stored values that are not bcrypt
// hashes are compared as plaintext, so older files keep working.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (BcryptHasher) Verify(stored, password string) bool {
	return verify(stored, password)
}

// PlaintextHasher stores passwords as given.
type PlaintextHasher struct{}

func (PlaintextHasher) Hash(password string) (string, error) {
	return password, nil
}

func (PlaintextHasher) Verify(stored, password string) bool {
	return verify(stored, password)
}

func verify(stored, password string) bool {
	if isBcrypt(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return stored == password
}

func isBcrypt(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
