package report

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/hirescope/internal/links"
	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

const (
	strengthThreshold = 65
	maxHighlights     = 6
)

// Input is everything known about one analysis request when the report is written
type Input struct {
	Profile  types.Profile
	Role     types.RoleConfig
	Context  string
	Links    []types.ContextLink
	External []types.ExternalContext
	Repos    []types.SelectedRepoEvidence
	Scores   types.ProfileScores
}

// EvidenceHighlights lists test, README and recent-commit facts per repository
func EvidenceHighlights(repos []types.SelectedRepoEvidence) []string {
	out := make([]string, 0, len(repos)*3)
	for _, ev := range repos {
		name := ev.Repo.Name
		if ev.Signals.Tests.HasTests {
			out = append(out, fmt.Sprintf("%s: tests detected (%d files).", name, ev.Signals.Tests.TestFileCount))
		} else {
			out = append(out, name+": no tests detected.")
		}
		if ev.Signals.Readme.Present {
			out = append(out, fmt.Sprintf("%s: README length %d chars.", name, ev.Signals.Readme.Length))
		} else {
			out = append(out, name+": missing README in repository root.")
		}
		out = append(out, fmt.Sprintf("%s: %d commits in last 90 days.", name, ev.Signals.RecentCommits90d))
	}
	return out
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// Fallback writes the deterministic report used when no synthesizer is
// configured or the synthesizer failed.
func Fallback(in Input) types.Draft {
	var strengths, weaknesses []string
	if in.Scores.CodeOrganization >= strengthThreshold {
		strengths = append(strengths, "Repository structure is generally organized and readable.")
	} else {
		weaknesses = append(weaknesses, "Repository organization is uneven across projects.")
	}
	if in.Scores.ProjectMaturity >= strengthThreshold {
		strengths = append(strengths, "Project maturity signals are present (docs, scope, or history depth).")
	} else {
		weaknesses = append(weaknesses, "Project maturity is limited by weak documentation or sparse history.")
	}
	if in.Scores.ConsistencyActivity >= strengthThreshold {
		strengths = append(strengths, "Recent activity shows consistent project maintenance.")
	} else {
		weaknesses = append(weaknesses, "Activity consistency is low across selected repositories.")
	}

	var linkNote string
	var linkHighlights []string
	if len(in.Links) > 0 {
		summary := links.Summarize(in.External)
		linkNote = summary.Note
		linkHighlights = firstN(summary.Highlights, 1)
	}

	findings := make([]types.RepoFinding, 0, len(in.Repos))
	for _, ev := range in.Repos {
		f := types.RepoFinding{
			Repo:               ev.Repo.Name,
			ProjectIntent:      ev.Repo.Description,
			ArchitectureSignal: "Testing patterns are missing, reducing confidence in architecture rigor.",
			Risk:               "Primary risk is limited deterministic depth without full runtime validation.",
		}
		if f.ProjectIntent == "" {
			f.ProjectIntent = "Project intent not clearly documented."
		}
		if ev.Signals.Tests.HasTests {
			f.ArchitectureSignal = "Testing patterns are present, suggesting deliberate project structure."
		}
		if ev.Signals.RecentCommits90d == 0 {
			f.Risk = "No recent commit activity detected in the last 90 days."
		}
		findings = append(findings, f)
	}

	roleFit := append([]string{in.Role.Label + " evaluation was applied using deterministic weighting."}, linkHighlights...)
	roleFit = append(roleFit, linkNote)

	reasoning := "Recommendation is directly derived from deterministic profile scores, role weighting, and public external-context signals."
	if len(in.Links) > 0 {
		reasoning += " " + externalSentencePrefix + linkNote
	}

	return types.Draft{
		Summary:                "Deterministic analysis completed successfully. AI synthesis is unavailable, so this report prioritizes measured repository signals, fetched public context links, and transparent scoring.",
		Strengths:              nonNil(strengths),
		Weaknesses:             nonNil(weaknesses),
		TechnicalHighlights:    firstN(EvidenceHighlights(in.Repos), maxHighlights),
		GrowthAreas: []string{
			"Increase test coverage signals across representative repositories.",
			"Strengthen README depth with setup, architecture, and validation details.",
			"Maintain steadier commit cadence on key repositories.",
		},
		RepoFindings:           findings,
		ExternalContextSignals: links.Signals(in.External),
		EvaluationModeBlurb:    EvaluationBlurb(in.Role, in.Context, in.Repos, in.Scores),
		Recommendation: &types.Recommendation{
			Decision:        DefaultDecision(in.Scores.Overall),
			RoleFit:         DedupeLines(roleFit),
			SenioritySignal: "Seniority signal estimated from measurable repository structure and activity.",
			Reasoning:       reasoning,
		},
		ImprovementChecklist: []string{
			"Add test suites in primary repositories and expose test commands in README.",
			"Document architecture and deployment decisions in repository root docs.",
			"Sustain regular commit cadence across production-intent projects.",
		},
		RoleImpact: joinNonEmpty(in.Role.ImpactNote, linkNote),
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
