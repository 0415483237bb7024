// Package chat defines the domain model shared by the server and client
// layers: users, credentials, rooms, and messages. Callers should match the
// sentinel errors below with errors.Is.
package chat

import "errors"

var (
	// ErrInvalidCredentials is returned when a login/password pair does not
	// verify against the stored credential.
	ErrInvalidCredentials = errors.New("invalid login or password")

	// ErrLoginTaken is returned when registering a login that already exists.
	ErrLoginTaken = errors.New("login already taken")

	// ErrRoomExists is returned when creating a room whose id is already known.
	ErrRoomExists = errors.New("chat already exists")

	// ErrRoomNotFound is returned when a room lookup by id finds nothing.
	ErrRoomNotFound = errors.New("chat not found")
)
