package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2HashService_RoundTrip(t *testing.T) {
	svc := NewArgon2HashService()

	hash, err := svc.Hash("1234")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := svc.Verify("1234", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Verify("4321", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2HashService_UniqueSalts(t *testing.T) {
	svc := NewArgon2HashService()

	h1, err := svc.Hash("1234")
	require.NoError(t, err)
	h2, err := svc.Hash("1234")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestArgon2HashService_MalformedHash(t *testing.T) {
	svc := NewArgon2HashService()

	_, err := svc.Verify("1234", "not-an-encoded-hash")
	assert.Error(t, err)
}
