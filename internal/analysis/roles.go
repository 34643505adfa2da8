package analysis

import (
	"strings"

	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

// Evaluation role keys
const (
	RoleRecruiter = "recruiter"
	RoleDeveloper = "developer"
	RoleOther     = "other"
)

const maxRoleOtherChars = 80

var roles = map[string]types.RoleConfig{
	RoleRecruiter: {
		Key:   RoleRecruiter,
		Label: "Recruiter",
		Weights: types.RoleWeights{
			CodeOrganization:    0.45,
			ProjectMaturity:     0.35,
			ConsistencyActivity: 0.20,
		},
		ImpactNote: "Applies a senior-engineer hiring lens: architecture quality, maintainability, delivery maturity, and consistent ownership signals.",
	},
	RoleDeveloper: {
		Key:   RoleDeveloper,
		Label: "Developer",
		Weights: types.RoleWeights{
			CodeOrganization:    0.45,
			ProjectMaturity:     0.30,
			ConsistencyActivity: 0.25,
		},
		ImpactNote: "Prioritizes architecture clarity and implementation quality while preserving maturity and consistency checks.",
	},
	RoleOther: {
		Key:   RoleOther,
		Label: "Other",
		Weights: types.RoleWeights{
			CodeOrganization:    0.34,
			ProjectMaturity:     0.33,
			ConsistencyActivity: 0.33,
		},
		ImpactNote: "Uses balanced weighting and applies custom role context to hiring recommendation language.",
	},
}

// NormalizeRole maps free-form input onto a known role key, defaulting to recruiter
func NormalizeRole(role string) string {
	key := strings.ToLower(strings.TrimSpace(role))
	if _, ok := roles[key]; ok {
		return key
	}
	return RoleRecruiter
}

// NormalizeRoleOther collapses whitespace and truncates the custom role label
func NormalizeRoleOther(value string) string {
	collapsed := strings.Join(strings.Fields(value), " ")
	return truncateRunes(collapsed, maxRoleOtherChars)
}

// ResolveRole returns the role config for a request. A custom label only
// applies to the "other" role.
func ResolveRole(role, roleOther string) types.RoleConfig {
	key := NormalizeRole(role)
	cfg := roles[key]
	other := NormalizeRoleOther(roleOther)
	if key != RoleOther || other == "" {
		return cfg
	}

	cfg.Label = "Other (" + other + ")"
	cfg.ImpactNote = "Balanced scoring model adapted for " + other + ", with emphasis interpreted through the custom role context."
	return cfg
}

// Roles lists the built-in role configs in a stable order
func Roles() []types.RoleConfig {
	return []types.RoleConfig{roles[RoleRecruiter], roles[RoleDeveloper], roles[RoleOther]}
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
