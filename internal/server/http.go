package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	myMiddleware "github.com/Lairnan/LairnanChat/internal/middleware"
	"github.com/Lairnan/LairnanChat/internal/user"
)

// routes builds the HTTP surface: the websocket endpoint, a health probe
// and a small REST account API sharing the websocket's auth backend.
func (s *Server) routes() http.Handler {
	userService := user.NewService(s.authSvc, s.tokens)
	userHandler := user.NewHandler(userService)
	authMiddleware := myMiddleware.NewAuthMiddleware(userService)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ws", s.handleWS)
	r.Post("/register", userHandler.Register)
	r.Post("/login", userHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handle)
		r.Get("/api/rooms", s.handleListRooms)
	})

	return r
}

// handleListRooms returns the rooms the authenticated user participates in.
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	u, ok := myMiddleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing authentication token", http.StatusUnauthorized)
		return
	}

	rooms := s.registry.RoomsForParticipant(u)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rooms); err != nil {
		s.log.Debug("encoding room list response", "error", err)
	}
}
