package stubserver

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
)

// Server exposes the notes backend wire contract over HTTP.
type Server struct {
	store    *Store
	secret   string
	logger   *slog.Logger
	tokenTTL time.Duration
}

// New creates a server over the given store. secret signs session tokens.
func New(store *Store, secret string, logger *slog.Logger) *Server {
	return &Server{
		store:    store,
		secret:   secret,
		logger:   logger,
		tokenTTL: defaultTokenTTL,
	}
}

// Router creates a chi router with all backend routes mounted. Everything
// except login requires a valid bearer token.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Post("/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/auth/me", s.handleMe)

		r.Get("/tenants/{tenantID}", s.handleGetTenant)
		r.Post("/tenants/{tenantID}/upgrade", s.handleUpgradeTenant)

		r.Get("/notes", s.handleListNotes)
		r.Post("/notes", s.handleCreateNote)
		r.Put("/notes/{noteID}", s.handleUpdateNote)
		r.Delete("/notes/{noteID}", s.handleDeleteNote)
	})

	return r
}
