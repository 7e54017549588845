package session

import (
	"context"
	"log/slog"

	"github.com/starford/raido/internal/apiclient"
	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

// State is the session lifecycle state.
type State string

// Session states.
const (
	StateAnonymous      State = "anonymous"
	StateRestoring      State = "restoring"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
)

// Manager owns the session: it acquires, persists, restores, and invalidates
// the token, and holds the identity the token unlocks. The identity is
// present only while a validated token is.
type Manager struct {
	api    *apiclient.Client
	tokens *TokenStore
	logger *slog.Logger

	state    State
	identity *models.User
}

// NewManager creates a session manager. The token store should already be
// loaded so a persisted token is visible to Restore.
func NewManager(api *apiclient.Client, tokens *TokenStore, logger *slog.Logger) *Manager {
	return &Manager{
		api:    api,
		tokens: tokens,
		logger: logger,
		state:  StateAnonymous,
	}
}

// Login submits credentials. On success the returned token is persisted and
// the session becomes authenticated; on failure the session stays anonymous
// and the failure message is surfaced unchanged.
func (m *Manager) Login(ctx context.Context, email, password string) (*models.User, error) {
	m.state = StateAuthenticating
	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.state = StateAnonymous
		m.identity = nil
		return nil, err
	}
	if err := m.tokens.Save(resp.Token); err != nil {
		m.state = StateAnonymous
		m.identity = nil
		return nil, apperr.New(apperr.ErrTransport, err.Error())
	}
	user := resp.User
	m.identity = &user
	m.state = StateAuthenticated
	return m.identity, nil
}

// Restore validates a persisted token at startup. A failure is expected
// behavior for expired sessions: the stale token is discarded silently and
// the session stays anonymous with no user-visible error. Returns nil when
// no persisted token exists.
func (m *Manager) Restore(ctx context.Context) *models.User {
	if m.tokens.Token() == "" {
		m.state = StateAnonymous
		return nil
	}
	m.state = StateRestoring
	user, err := m.api.Me(ctx)
	if err != nil {
		m.logger.Debug("session restore failed, discarding token",
			slog.String("error", err.Error()))
		_ = m.tokens.Clear()
		m.state = StateAnonymous
		m.identity = nil
		return nil
	}
	m.identity = user
	m.state = StateAuthenticated
	return m.identity
}

// Logout clears the persisted token and the identity. Always succeeds and
// is idempotent.
func (m *Manager) Logout() {
	if err := m.tokens.Clear(); err != nil {
		m.logger.Warn("clear persisted token", slog.String("error", err.Error()))
	}
	m.identity = nil
	m.state = StateAnonymous
}

// Current returns the authenticated identity, or nil while anonymous. The
// snapshot is read-only to callers.
func (m *Manager) Current() *models.User { return m.identity }

// State returns the current lifecycle state.
func (m *Manager) State() State { return m.state }

// Authenticated reports whether a validated identity is held.
func (m *Manager) Authenticated() bool { return m.state == StateAuthenticated }
