package models

// Plan is a tenant's subscription tier.
type Plan string

// Known plans.
const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// Tenant is an organizational unit owning a pool of notes. NoteLimit is
// meaningful only on the free plan; the pro plan is unbounded.
type Tenant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Plan      Plan   `json:"plan"`
	NoteLimit int    `json:"noteLimit"`
}

// Unlimited reports whether the tenant has no note quota.
func (t *Tenant) Unlimited() bool {
	return t != nil && t.Plan == PlanPro
}
