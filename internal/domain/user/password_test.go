package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("umhlanga-rocks")
	require.NoError(t, err)
	assert.NotEqual(t, "umhlanga-rocks", hash)

	assert.True(t, PasswordMatches(hash, "umhlanga-rocks"))
	assert.False(t, PasswordMatches(hash, "umhlanga-rock"))
	assert.False(t, PasswordMatches("not-a-hash", "umhlanga-rocks"))

	_, err = HashPassword(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, errPasswordTooLong)
}
