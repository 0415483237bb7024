package chat

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageAddressing_IsMutuallyExclusive(t *testing.T) {
	t.Parallel()

	alice := NewUser("alice", "en-US")
	bob := NewUser("bob", "en-US")
	roomID := uuid.New()

	m := NewRoomMessage(alice, roomID, "hi", "en-US")
	require.NotNil(t, m.RoomID)
	assert.Nil(t, m.Receiver)

	m.ChangeReceiver(bob)
	assert.Nil(t, m.RoomID)
	assert.Equal(t, bob, m.Receiver)

	m.ChangeRoom(roomID)
	assert.Nil(t, m.Receiver)
	require.NotNil(t, m.RoomID)
	assert.Equal(t, roomID, *m.RoomID)
}

func TestChangeOriginalContent(t *testing.T) {
	t.Parallel()

	alice := NewUser("alice", "en-US")
	m := NewDirectMessage(alice, nil, "hello", "en-US")

	m.ChangeOriginalContent("privet", "ru-RU")
	assert.Equal(t, "privet", m.OriginalContent)
	assert.Equal(t, "ru-RU", m.OriginalLanguage)

	m.ChangeOriginalContent("hi again", "")
	assert.Equal(t, "hi again", m.OriginalContent)
	assert.Equal(t, "ru-RU", m.OriginalLanguage, "empty language keeps the current one")
}

func TestClone_IsolatesTranslation(t *testing.T) {
	t.Parallel()

	alice := NewUser("alice", "en-US")
	m := NewDirectMessage(alice, nil, "hello", "en-US")

	c := m.Clone()
	c.SetTranslatedContent("bonjour")

	assert.Empty(t, m.TranslatedContent)
	assert.Equal(t, "bonjour", c.TranslatedContent)
	assert.Equal(t, m.ID, c.ID)
}

func TestMessageJSON_RoomAddressing(t *testing.T) {
	t.Parallel()

	alice := NewUser("alice", "en-US")
	roomID := uuid.New()
	m := NewRoomMessage(alice, roomID, "hi", "en-US")
	m.ChangeContent(json.RawMessage(`{"file":"cat.png"}`))

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var back Message
	require.NoError(t, json.Unmarshal(data, &back))
	require.NotNil(t, back.RoomID)
	assert.Equal(t, roomID, *back.RoomID)
	assert.Nil(t, back.Receiver)
	assert.Equal(t, alice.ID, back.Sender.ID)
	assert.JSONEq(t, `{"file":"cat.png"}`, string(back.Content))
}
