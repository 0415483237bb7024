package myMiddleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Lairnan/LairnanChat/internal/chat"
)

type contextKey string

const UserKey contextKey = "user"

// TokenValidator is what this package needs from the account service;
// the interface keeps the middleware decoupled from it.
type TokenValidator interface {
	ValidateToken(tokenString string) (*chat.User, error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(v TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: v}
}

// Handle rejects requests without a valid bearer token. The token comes
// from the Authorization header, falling back to the token query param so
// websocket clients can authenticate too.
func (am *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := ""

		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			tokenString = r.URL.Query().Get("token")
		}

		if tokenString == "" {
			http.Error(w, "Missing authentication token", http.StatusUnauthorized)
			return
		}

		u, err := am.validator.ValidateToken(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserKey, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the authenticated user injected by Handle.
func UserFromContext(ctx context.Context) (*chat.User, bool) {
	u, ok := ctx.Value(UserKey).(*chat.User)
	return u, ok
}
