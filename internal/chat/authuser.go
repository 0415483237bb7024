package chat

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	credentialKeySize    = 64
	credentialSaltSize   = 64
	credentialIterations = 350000
)

// AuthUser carries the credentials a client presents during the handshake.
// Login, Password, and Language travel over the wire; PasswordHash and Salt
// are derived server-side and are never serialized.
type AuthUser struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Language string `json:"language"`

	PasswordHash []byte `json:"-"`
	Salt         []byte `json:"-"`
}

// NewAuthUser builds a credential carrier for the given login and password.
func NewAuthUser(login, password, language string) *AuthUser {
	return &AuthUser{Login: login, Password: password, Language: language}
}

// SetCredential derives a salted PBKDF2-SHA512 hash from the given password
// and stores salt and hash on the receiver. The raw password is not retained.
func (a *AuthUser) SetCredential(password string) error {
	salt := make([]byte, credentialSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("generating credential salt: %w", err)
	}
	a.Salt = salt
	a.PasswordHash = pbkdf2.Key([]byte(password), salt, credentialIterations, credentialKeySize, sha512.New)
	a.Password = ""
	return nil
}

// VerifyCredential recomputes the derived key for the candidate password and
// compares it to the stored hash in constant time.
func (a *AuthUser) VerifyCredential(password string) bool {
	if len(a.PasswordHash) == 0 || len(a.Salt) == 0 {
		return false
	}
	candidate := pbkdf2.Key([]byte(password), a.Salt, credentialIterations, credentialKeySize, sha512.New)
	return subtle.ConstantTimeCompare(candidate, a.PasswordHash) == 1
}
