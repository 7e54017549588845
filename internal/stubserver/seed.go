package stubserver

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/pkg/config"
)

// Seed describes the tenants and accounts loaded into the store at startup.
type Seed struct {
	Tenants []SeedTenant `yaml:"tenants"`
	Users   []SeedUser   `yaml:"users"`
}

// SeedTenant is one tenant entry in the seed file.
type SeedTenant struct {
	ID        string      `yaml:"id"`
	Name      string      `yaml:"name"`
	Plan      models.Plan `yaml:"plan"`
	NoteLimit int         `yaml:"note_limit"`
}

// SeedUser is one account entry in the seed file. Passwords are plaintext in
// the seed and hashed on apply.
type SeedUser struct {
	ID       string      `yaml:"id"`
	TenantID string      `yaml:"tenant_id"`
	Email    string      `yaml:"email"`
	Password string      `yaml:"password"`
	Role     models.Role `yaml:"role"`
}

// Validate validates the seed data.
func (s *Seed) Validate() error {
	if err := validation.ValidateStruct(s,
		validation.Field(&s.Tenants, validation.Required),
		validation.Field(&s.Users, validation.Required),
	); err != nil {
		return err
	}
	for i := range s.Tenants {
		t := &s.Tenants[i]
		if err := validation.ValidateStruct(t,
			validation.Field(&t.ID, validation.Required),
			validation.Field(&t.Name, validation.Required),
			validation.Field(&t.Plan, validation.Required, validation.In(models.PlanFree, models.PlanPro)),
			// A free-plan tenant with no limit would be permanently at quota.
			validation.Field(&t.NoteLimit, validation.When(t.Plan == models.PlanFree, validation.Required, validation.Min(1))),
		); err != nil {
			return err
		}
	}
	for i := range s.Users {
		u := &s.Users[i]
		if err := validation.ValidateStruct(u,
			validation.Field(&u.ID, validation.Required),
			validation.Field(&u.TenantID, validation.Required),
			validation.Field(&u.Email, validation.Required),
			validation.Field(&u.Password, validation.Required),
			validation.Field(&u.Role, validation.Required, validation.In(models.RoleAdmin, models.RoleMember)),
		); err != nil {
			return err
		}
	}
	return nil
}

// LoadSeed reads and validates a YAML seed file.
func LoadSeed(path string) (Seed, error) {
	var seed Seed
	if err := config.Load(path, &seed); err != nil {
		return Seed{}, err
	}
	return seed, nil
}

// DefaultSeed returns the built-in demo dataset: two free-plan tenants with
// an admin and a member each. Every account's password is "password".
func DefaultSeed() Seed {
	return Seed{
		Tenants: []SeedTenant{
			{ID: "acme", Name: "Acme", Plan: models.PlanFree, NoteLimit: 3},
			{ID: "globex", Name: "Globex", Plan: models.PlanFree, NoteLimit: 3},
		},
		Users: []SeedUser{
			{ID: "u-acme-admin", TenantID: "acme", Email: "admin@acme.test", Password: "password", Role: models.RoleAdmin},
			{ID: "u-acme-member", TenantID: "acme", Email: "user@acme.test", Password: "password", Role: models.RoleMember},
			{ID: "u-globex-admin", TenantID: "globex", Email: "admin@globex.test", Password: "password", Role: models.RoleAdmin},
			{ID: "u-globex-member", TenantID: "globex", Email: "user@globex.test", Password: "password", Role: models.RoleMember},
		},
	}
}

// WatchSeed watches the seed file and re-applies it on change until ctx is
// cancelled. Editors replace files rather than writing in place, so the
// watch is on the parent directory and events are debounced.
func WatchSeed(ctx context.Context, path string, store *Store, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("seed watcher: started", slog.String("path", abs))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("seed watcher: stopped")
			return nil

		case <-reloadCh:
			seed, loadErr := LoadSeed(abs)
			if loadErr != nil {
				logger.Warn("seed watcher: reload failed", slog.String("error", loadErr.Error()))
				continue
			}
			if applyErr := store.ApplySeed(seed); applyErr != nil {
				logger.Warn("seed watcher: apply failed", slog.String("error", applyErr.Error()))
				continue
			}
			logger.Info("seed watcher: seed re-applied",
				slog.Int("tenants", len(seed.Tenants)),
				slog.Int("users", len(seed.Users)))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("seed watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
