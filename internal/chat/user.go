package chat

import "github.com/google/uuid"

// User identifies one authenticated session. A fresh ID is minted per
// successful connect, so the same login reconnecting gets a new User.
type User struct {
	ID       uuid.UUID `json:"id"`
	UserName string    `json:"userName"`
	Language string    `json:"language"`
}

// NewUser creates a session user with a random id.
func NewUser(userName, language string) *User {
	return &User{
		ID:       uuid.New(),
		UserName: userName,
		Language: language,
	}
}
