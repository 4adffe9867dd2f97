package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	h, err := Hash("secret")
	require.NoError(t, err)
	assert.True(t, IsHash(h))
	assert.True(t, Verify("secret", h))
	assert.False(t, Verify("other", h))
}

func TestIsHash(t *testing.T) {
	assert.False(t, IsHash("admin123"))
	assert.False(t, IsHash("$2a$short"))
	assert.True(t, IsHash("$2y$10$abcdefghijklmnopqrstuuabcdefghijklmnopqrstuvwxyz01234"))
}

func TestHashIfPlainKeepsExistingHash(t *testing.T) {
	h, err := Hash("secret")
	require.NoError(t, err)

	same, err := HashIfPlain(h)
	require.NoError(t, err)
	assert.Equal(t, h, same)

	fresh, err := HashIfPlain("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", fresh)
	assert.True(t, Verify("secret", fresh))
}
