package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_HashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Secret#123")
	require.NoError(t, err)

	assert.NotEqual(t, "Secret#123", hash)
	assert.True(t, CheckPassword(hash, "Secret#123"))
	assert.False(t, CheckPassword(hash, "secret#123"))
	assert.False(t, CheckPassword("not-a-hash", "Secret#123"))
}

func Test_TokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	raw, err := m.Issue(42, true)
	require.NoError(t, err)

	claims, err := m.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "42", claims.Subject)
}

func Test_TokenManager_RejectsExpiredAndForeignTokens(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	expired, err := m.Issue(1, false)
	require.NoError(t, err)

	_, err = NewTokenManager("test-secret", time.Hour).Parse(expired)
	assert.Error(t, err)

	foreign, err := NewTokenManager("other-secret", time.Hour).Issue(1, false)
	require.NoError(t, err)

	_, err = NewTokenManager("test-secret", time.Hour).Parse(foreign)
	assert.Error(t, err)
}
