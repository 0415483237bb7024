package user

import "github.com/Lairnan/LairnanChat/internal/chat"

type CredentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Language string `json:"language"`
}

type TokenResponse struct {
	AccessToken string     `json:"access_token"`
	User        *chat.User `json:"user"`
}
