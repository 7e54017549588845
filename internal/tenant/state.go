// Package tenant holds the current tenant's plan and note-quota metadata.
package tenant

import (
	"context"

	"github.com/starford/raido/internal/apiclient"
	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

// State caches the tenant snapshot last confirmed by the backend. A failed
// refresh keeps the previous snapshot; stale-but-available beats blanking
// the display.
type State struct {
	api     *apiclient.Client
	current *models.Tenant
}

// NewState creates an empty tenant state.
func NewState(api *apiclient.Client) *State {
	return &State{api: api}
}

// Refresh fetches tenant metadata by id and replaces the held snapshot on
// success. On failure the previous snapshot is retained and the failure is
// returned for transient display.
func (s *State) Refresh(ctx context.Context, tenantID string) (*models.Tenant, error) {
	t, err := s.api.Tenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	s.current = t
	return t, nil
}

// Upgrade requests a plan upgrade. Only an admin identity may upgrade; any
// other role is rejected locally without a network request. The local
// snapshot is not touched — callers re-invoke Refresh to observe the new
// plan, keeping the backend the single source of truth.
func (s *State) Upgrade(ctx context.Context, tenantID string, role models.Role) error {
	if role != models.RoleAdmin {
		return apperr.New(apperr.ErrPermissionDenied, "only admins can upgrade the tenant plan")
	}
	return s.api.UpgradeTenant(ctx, tenantID)
}

// Current returns the held snapshot, or nil before the first successful
// refresh.
func (s *State) Current() *models.Tenant { return s.current }

// Reset drops the snapshot. Called on logout.
func (s *State) Reset() { s.current = nil }
