package gate

import (
	"testing"

	"github.com/starford/raido/internal/models"
)

func TestEvaluate(t *testing.T) {
	free := &models.Tenant{ID: "acme", Plan: models.PlanFree, NoteLimit: 3}
	pro := &models.Tenant{ID: "acme", Plan: models.PlanPro}

	tests := []struct {
		name   string
		tenant *models.Tenant
		count  int
		role   models.Role
		want   Flags
	}{
		{"free under limit", free, 2, models.RoleAdmin, Flags{}},
		{"free at limit admin", free, 3, models.RoleAdmin, Flags{QuotaReached: true, ShowUpgrade: true}},
		{"free over limit admin", free, 5, models.RoleAdmin, Flags{QuotaReached: true, ShowUpgrade: true}},
		{"free at limit member", free, 3, models.RoleMember, Flags{QuotaReached: true}},
		{"pro at former limit", pro, 3, models.RoleAdmin, Flags{}},
		{"pro high count", pro, 1000, models.RoleAdmin, Flags{}},
		{"no tenant yet", nil, 3, models.RoleAdmin, Flags{}},
		{"free zero limit empty", &models.Tenant{Plan: models.PlanFree, NoteLimit: 0}, 0, models.RoleMember, Flags{QuotaReached: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.tenant, tt.count, tt.role); got != tt.want {
				t.Errorf("Evaluate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
