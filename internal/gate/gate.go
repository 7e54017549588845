// Package gate derives UI-gating flags from tenant plan, note count, and
// role. Pure functions only: no state, no requests.
package gate

import "github.com/starford/raido/internal/models"

// Flags are the gating decisions consumed by the presentation layer.
type Flags struct {
	// QuotaReached is true when a free-plan tenant is at or above its note
	// limit. Always false on the pro plan.
	QuotaReached bool
	// ShowUpgrade is true when the quota is reached and the identity may
	// act on it. Non-admin members see the limit but not the control.
	ShowUpgrade bool
}

// Evaluate computes the gating flags. A nil tenant (not yet refreshed)
// yields zero flags.
func Evaluate(tenant *models.Tenant, noteCount int, role models.Role) Flags {
	if tenant == nil {
		return Flags{}
	}
	quotaReached := tenant.Plan == models.PlanFree && noteCount >= tenant.NoteLimit
	return Flags{
		QuotaReached: quotaReached,
		ShowUpgrade:  quotaReached && role == models.RoleAdmin,
	}
}
