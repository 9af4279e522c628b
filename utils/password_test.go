package utils

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	plain := gofakeit.Password(true, true, true, false, false, 16)

	hash, err := HashPassword(plain)
	require.NoError(t, err)
	assert.NotEqual(t, plain, hash)
	assert.True(t, CheckPassword(hash, plain))
	assert.False(t, CheckPassword(hash, plain+"!"))

	again, err := HashPassword(plain)
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes are salted")

	assert.NotPanics(t, func() { BurnPasswordCheck(plain) })
}
