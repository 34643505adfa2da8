package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ZanzyTHEbar/hirescope/internal/errors"
)

func TestResolveRole(t *testing.T) {
	tests := []struct {
		name      string
		role      string
		roleOther string
		key       string
		label     string
	}{
		{name: "empty defaults to recruiter", role: "", key: RoleRecruiter, label: "Recruiter"},
		{name: "unknown defaults to recruiter", role: "manager", key: RoleRecruiter, label: "Recruiter"},
		{name: "case insensitive", role: "  Developer ", key: RoleDeveloper, label: "Developer"},
		{name: "other without custom label", role: "other", key: RoleOther, label: "Other"},
		{name: "other with custom label", role: "other", roleOther: "  Data   Engineer ", key: RoleOther, label: "Other (Data Engineer)"},
		{name: "custom label ignored for recruiter", role: "recruiter", roleOther: "SRE", key: RoleRecruiter, label: "Recruiter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ResolveRole(tt.role, tt.roleOther)
			assert.Equal(t, tt.key, cfg.Key)
			assert.Equal(t, tt.label, cfg.Label)
		})
	}
}

func TestResolveRoleCustomImpactNote(t *testing.T) {
	cfg := ResolveRole("other", "Platform lead")
	assert.Equal(t, "Balanced scoring model adapted for Platform lead, with emphasis interpreted through the custom role context.", cfg.ImpactNote)
}

func TestRoleWeightsSumToOne(t *testing.T) {
	for _, r := range Roles() {
		sum := r.Weights.CodeOrganization + r.Weights.ProjectMaturity + r.Weights.ConsistencyActivity
		assert.InDelta(t, 1.0, sum, 1e-9, r.Key)
	}
}

func TestNormalizeRoleOtherTruncates(t *testing.T) {
	long := strings.Repeat("a", 120)
	assert.Len(t, NormalizeRoleOther(long), 80)
}

func TestParseGitHubUsername(t *testing.T) {
	valid := map[string]string{
		"octocat":                              "octocat",
		"  octo-cat  ":                         "octo-cat",
		"https://github.com/octocat":           "octocat",
		"https://www.github.com/octocat/":      "octocat",
		"github.com/octocat?tab=repositories":  "octocat",
		"HTTP://GitHub.com/Octocat/hello-world": "Octocat",
	}
	for input, expected := range valid {
		got, err := ParseGitHubUsername(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, got, input)
	}

	invalid := []string{
		"",
		"   ",
		"octo cat",
		"https://gitlab.com/octocat",
		strings.Repeat("a", 40),
		"octo_cat",
	}
	for _, input := range invalid {
		_, err := ParseGitHubUsername(input)
		require.Error(t, err, input)
		appErr := apperrors.ToAppError(err)
		assert.Equal(t, apperrors.CategoryValidation, appErr.Category)
		assert.Equal(t, 400, appErr.HTTPStatus)
	}
}
