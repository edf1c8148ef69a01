package passhash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	digest, err := Hash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, digest)

	assert.True(t, Verify("correct horse battery staple", digest))
	assert.False(t, Verify("correct horse battery stapl", digest))
	assert.False(t, Verify("", digest))
}

func TestHashIsSalted(t *testing.T) {
	first, err := Hash("same password")
	require.NoError(t, err)

	second, err := Hash("same password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, Verify("same password", first))
	assert.True(t, Verify("same password", second))
}

func TestOversizedPassword(t *testing.T) {
	// bcrypt alone rejects inputs over 72 bytes; the prehash must make
	// arbitrarily long passwords work and distinguishable past that limit.
	long := strings.Repeat("a", 10_000)

	digest, err := Hash(long)
	require.NoError(t, err)

	assert.True(t, Verify(long, digest))
	assert.False(t, Verify(long+"b", digest))
}
