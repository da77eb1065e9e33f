package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("Secr3t!pass")
	require.NoError(t, err)
	assert.NotEqual(t, "Secr3t!pass", hash)

	assert.True(t, h.Check("Secr3t!pass", hash))
	assert.False(t, h.Check("wrong", hash))
	assert.False(t, h.Check("Secr3t!pass", ""))
}

func TestPasswordHasherTooLong(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	_, err := h.Hash(string(make([]byte, 73)))
	assert.ErrorIs(t, err, ErrHashPassword)
}

func TestPasswordHasherEqualize(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	var hashes [][]byte
	h.compare = func(hash, password []byte) error {
		hashes = append(hashes, hash)
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	h.Equalize("Secr3t!pass")
	h.Equalize("other")

	require.Len(t, hashes, 2)
	assert.Equal(t, hashes[0], hashes[1])
	cost, err := bcrypt.Cost(hashes[0])
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}
