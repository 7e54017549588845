package internal

import (
	"context"
	"log/slog"
	"sync"

	"github.com/starford/raido/internal/apiclient"
	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/gate"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/notes"
	"github.com/starford/raido/internal/session"
	"github.com/starford/raido/internal/tenant"
)

// App is the explicit session context: it wires the request pipeline,
// session manager, tenant state, and notes store together with an
// init-at-startup / clear-on-logout lifecycle. The presentation layer talks
// to the core only through this facade.
type App struct {
	cfg    *Config
	logger *slog.Logger

	Session *session.Manager
	Tenant  *tenant.State
	Notes   *notes.Store

	// busy is the coarse guard that rejects a mutating intent while
	// another is outstanding. There is no cancellation: an in-flight
	// request always runs to completion.
	busy sync.Mutex
}

// NewApp builds the session context from configuration. The persisted token,
// if any, is loaded here; call Startup to validate it.
func NewApp(cfg *Config, logger *slog.Logger) (*App, error) {
	tokenPath := cfg.Session.TokenPath
	if tokenPath == "" {
		p, err := session.DefaultTokenPath()
		if err != nil {
			return nil, err
		}
		tokenPath = p
	}
	tokens := session.NewTokenStore(tokenPath)
	if err := tokens.Load(); err != nil {
		return nil, err
	}
	api := apiclient.New(cfg.Backend.BaseURL, tokens)
	a := &App{
		cfg:     cfg,
		logger:  logger,
		Session: session.NewManager(api, tokens, logger),
		Tenant:  tenant.NewState(api),
		Notes:   notes.NewStore(api),
	}
	api.OnAuthError(a.invalidate)
	return a, nil
}

// invalidate tears down the session when a request reports the token is no
// longer valid. The failed request's message still surfaces to its caller;
// this only ensures no component keeps trusting a dead token.
func (a *App) invalidate() {
	if !a.Session.Authenticated() {
		return
	}
	a.logger.Info("session invalidated by authentication failure")
	a.Session.Logout()
	a.Tenant.Reset()
	a.Notes.Reset()
}

// Startup restores a persisted session, and when one validates, loads the
// tenant snapshot and note collection. Restore failures are silent.
func (a *App) Startup(ctx context.Context) {
	if user := a.Session.Restore(ctx); user != nil {
		a.refreshAll(ctx, user)
	}
}

// Login authenticates and, on success, loads dependent state. Refresh
// failures after a successful login are logged, not fatal; the next command
// re-fetches what it needs.
func (a *App) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := a.Session.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	a.refreshAll(ctx, user)
	return user, nil
}

// Logout clears the session and all dependent state. Idempotent.
func (a *App) Logout() {
	a.Session.Logout()
	a.Tenant.Reset()
	a.Notes.Reset()
}

func (a *App) refreshAll(ctx context.Context, user *models.User) {
	if _, err := a.Tenant.Refresh(ctx, user.TenantID); err != nil {
		a.logger.Warn("tenant refresh failed", slog.String("error", err.Error()))
	}
	if _, err := a.Notes.List(ctx); err != nil {
		a.logger.Warn("notes refresh failed", slog.String("error", err.Error()))
	}
}

// CreateNote submits a new note through the busy guard.
func (a *App) CreateNote(ctx context.Context, title, content string) error {
	if !a.busy.TryLock() {
		return apperr.New(apperr.ErrBusy, "another operation is in progress")
	}
	defer a.busy.Unlock()
	return a.Notes.Create(ctx, title, content)
}

// UpdateNote replaces a note's fields through the busy guard.
func (a *App) UpdateNote(ctx context.Context, id, title, content string) error {
	if !a.busy.TryLock() {
		return apperr.New(apperr.ErrBusy, "another operation is in progress")
	}
	defer a.busy.Unlock()
	return a.Notes.Update(ctx, id, title, content)
}

// DeleteNote removes a note through the busy guard. The caller boundary is
// responsible for confirmation before invoking this.
func (a *App) DeleteNote(ctx context.Context, id string) error {
	if !a.busy.TryLock() {
		return apperr.New(apperr.ErrBusy, "another operation is in progress")
	}
	defer a.busy.Unlock()
	return a.Notes.Delete(ctx, id)
}

// UpgradeTenant requests a plan upgrade for the current identity's tenant
// and re-fetches the tenant snapshot to observe the confirmed plan.
func (a *App) UpgradeTenant(ctx context.Context) error {
	if !a.busy.TryLock() {
		return apperr.New(apperr.ErrBusy, "another operation is in progress")
	}
	defer a.busy.Unlock()

	user := a.Session.Current()
	if user == nil {
		return apperr.New(apperr.ErrAuthentication, "not logged in")
	}
	if err := a.Tenant.Upgrade(ctx, user.TenantID, user.Role); err != nil {
		return err
	}
	if _, err := a.Tenant.Refresh(ctx, user.TenantID); err != nil {
		return err
	}
	return nil
}

// Gate recomputes the gating flags from current state.
func (a *App) Gate() gate.Flags {
	var role models.Role
	if user := a.Session.Current(); user != nil {
		role = user.Role
	}
	return gate.Evaluate(a.Tenant.Current(), a.Notes.Count(), role)
}

// Busy reports whether a mutating operation is outstanding.
func (a *App) Busy() bool {
	if a.busy.TryLock() {
		a.busy.Unlock()
		return false
	}
	return true
}
