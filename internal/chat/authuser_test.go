package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCredential_DerivesAndClearsPassword(t *testing.T) {
	t.Parallel()

	a := NewAuthUser("alice", "hunter2", "en-US")
	require.NoError(t, a.SetCredential("hunter2"))

	assert.Empty(t, a.Password)
	assert.Len(t, a.PasswordHash, 64)
	assert.Len(t, a.Salt, 64)
}

func TestVerifyCredential(t *testing.T) {
	t.Parallel()

	a := NewAuthUser("alice", "hunter2", "en-US")
	require.NoError(t, a.SetCredential("hunter2"))

	assert.True(t, a.VerifyCredential("hunter2"))
	assert.False(t, a.VerifyCredential("hunter3"))
	assert.False(t, a.VerifyCredential(""))
}

func TestVerifyCredential_WithoutDerivation(t *testing.T) {
	t.Parallel()

	a := NewAuthUser("alice", "hunter2", "en-US")
	assert.False(t, a.VerifyCredential("hunter2"))
}

func TestSetCredential_SaltsAreUnique(t *testing.T) {
	t.Parallel()

	a := NewAuthUser("alice", "hunter2", "en-US")
	b := NewAuthUser("bob", "hunter2", "en-US")
	require.NoError(t, a.SetCredential("hunter2"))
	require.NoError(t, b.SetCredential("hunter2"))

	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.PasswordHash, b.PasswordHash)
}

func TestAuthUserJSON_OmitsDerivedFields(t *testing.T) {
	t.Parallel()

	a := NewAuthUser("alice", "hunter2", "ru-RU")
	require.NoError(t, a.SetCredential("hunter2"))

	data, err := json.Marshal(a)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "passwordHash")
	assert.NotContains(t, string(data), "salt")

	var back AuthUser
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "alice", back.Login)
	assert.Equal(t, "ru-RU", back.Language)
	assert.Nil(t, back.PasswordHash)
}
