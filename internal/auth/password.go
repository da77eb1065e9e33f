package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var ErrHashPassword = errors.New("failed to hash password")

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost    int
	compare func(hash, password []byte) error

	dummyOnce sync.Once
	dummy     []byte
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost, compare: bcrypt.CompareHashAndPassword}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashPassword, err)
	}
	return string(hash), nil
}

func (h *PasswordHasher) Check(password, hash string) bool {
	if hash == "" {
		return false
	}
	return h.compare([]byte(hash), []byte(password)) == nil
}

// Equalize compares password against a fixed hash of the configured cost and
// discards the result. Login calls it when there is no stored hash so that
// unknown accounts take as long to reject as wrong passwords.
func (h *PasswordHasher) Equalize(password string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("quizhub-equalize"), h.cost)
	})
	_ = h.compare(h.dummy, []byte(password))
}
