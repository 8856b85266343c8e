package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/redmonkez12/taskapi/internal/config"
)

func TestBcryptHasher(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	digest, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(digest, "$2a$"))
	assert.NotContains(t, digest, "secret1")

	assert.True(t, h.Verify("secret1", digest))
	assert.False(t, h.Verify("secret2", digest))
	assert.False(t, h.Verify("secret1", "not-a-digest"))
	assert.False(t, h.Verify("secret1", ""))
}

func TestBcryptHasherRejectsBadCost(t *testing.T) {
	_, err := NewBcryptHasher(bcrypt.MaxCost + 1)
	assert.Error(t, err)
}

func TestArgon2Hasher(t *testing.T) {
	h := NewArgon2Hasher()

	digest, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(digest, "$argon2id$v=19$"))

	other, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, digest, other, "salts must differ")

	assert.True(t, h.Verify("secret1", digest))
	assert.False(t, h.Verify("wrong", digest))
}

func TestArgon2HasherMalformedDigests(t *testing.T) {
	h := NewArgon2Hasher()

	for _, digest := range []string{
		"",
		"$argon2id$",
		"$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$",
		"$argon2id$v=19$m=65536,t=0,p=4$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=0$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=999999999,t=3,p=4$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2i$v=19$m=65536,t=3,p=4$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=4$!!!$aGFzaGhhc2hoYXNoaGFzaA",
	} {
		assert.NotPanics(t, func() {
			assert.False(t, h.Verify("secret1", digest), "digest %q", digest)
		})
	}
}

func TestMultiHasherVerifiesAcrossAlgorithms(t *testing.T) {
	bcryptFirst, err := NewPasswordHasher(config.HashBcrypt, bcrypt.MinCost)
	require.NoError(t, err)
	argonFirst, err := NewPasswordHasher(config.HashArgon2id, bcrypt.MinCost)
	require.NoError(t, err)

	bDigest, err := bcryptFirst.Hash("secret1")
	require.NoError(t, err)
	aDigest, err := argonFirst.Hash("secret1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(aDigest, "$argon2id$"))
	assert.True(t, argonFirst.Verify("secret1", bDigest))
	assert.True(t, bcryptFirst.Verify("secret1", aDigest))
	assert.False(t, bcryptFirst.Verify("secret1", "$unknown$digest"))
}

func TestNewPasswordHasherUnknownAlgorithm(t *testing.T) {
	_, err := NewPasswordHasher("md5", bcrypt.MinCost)
	assert.Error(t, err)
}

func TestNewPasswordHasherZeroCostUsesDefault(t *testing.T) {
	h, err := NewPasswordHasher(config.HashBcrypt, 0)
	require.NoError(t, err)

	digest, err := h.Hash("secret1")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultBcryptCost, cost)
}
