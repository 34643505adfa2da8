package report

import (
	"strings"

	"github.com/ZanzyTHEbar/hirescope/internal/links"
	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

const (
	noSummary          = "No executive summary returned."
	maxTechHighlights  = 8
	maxExternalRoleFit = 1
)

// Assemble merges a draft, synthesized or fallback, with the deterministic
// evidence into the final report. Fields the draft did not supply are
// derived from the evidence.
func Assemble(in Input, draft types.Draft) types.Report {
	rec := NormalizeRecommendation(draft.Recommendation, in.Scores.Overall)

	var linkSummary *types.ExternalContextSummary
	if len(in.Links) > 0 {
		s := links.Summarize(in.External)
		linkSummary = &s
	}
	linkNote := ""
	var linkHighlights []string
	if linkSummary != nil {
		linkNote = linkSummary.Note
		linkHighlights = firstN(linkSummary.Highlights, maxExternalRoleFit)
	}

	roleFit := append([]string{}, rec.RoleFit...)
	roleFit = append(roleFit, InferRoleFit(in.Repos)...)
	if !mentionsExternalContext(rec.RoleFit) {
		roleFit = append(roleFit, linkHighlights...)
		roleFit = append(roleFit, linkNote)
	}
	rec.RoleFit = DedupeLines(roleFit)
	rec.Reasoning = MergeReasoning(rec.Reasoning, linkNote)

	out := types.Report{
		Summary:              draft.Summary,
		Scores:               in.Scores,
		Strengths:            nonNil(draft.Strengths),
		Gaps:                 nonNil(draft.Weaknesses),
		TechnicalHighlights:  draft.TechnicalHighlights,
		GrowthAreas:          nonNil(draft.GrowthAreas),
		RepoFindings:         draft.RepoFindings,
		EvaluationModeBlurb:  NormalizeBlurb(draft.EvaluationModeBlurb, EvaluationBlurb(in.Role, in.Context, in.Repos, in.Scores)),
		Recommendation:       rec,
		ImprovementChecklist: nonNil(draft.ImprovementChecklist),
		RoleImpact:           draft.RoleImpact,
	}
	if out.Summary == "" {
		out.Summary = noSummary
	}
	if out.TechnicalHighlights == nil {
		out.TechnicalHighlights = firstN(EvidenceHighlights(in.Repos), maxTechHighlights)
	}
	if out.RepoFindings == nil {
		out.RepoFindings = evidenceFindings(in.Repos)
	}
	if out.RoleImpact == "" {
		out.RoleImpact = in.Role.ImpactNote
	}
	if !strings.Contains(out.RoleImpact, linkNote) {
		out.RoleImpact = joinNonEmpty(out.RoleImpact, linkNote)
	}

	out.ExternalContextSignals = []string{}
	if len(in.Links) > 0 {
		out.ExternalContextSignals = draft.ExternalContextSignals
		if len(out.ExternalContextSignals) == 0 {
			out.ExternalContextSignals = links.Signals(in.External)
		}
	}
	return out
}

// evidenceFindings stands in for repo findings a synthesizer left out
func evidenceFindings(repos []types.SelectedRepoEvidence) []types.RepoFinding {
	out := make([]types.RepoFinding, 0, len(repos))
	for _, ev := range repos {
		f := types.RepoFinding{
			Repo:               ev.Repo.Name,
			QualityScore:       ev.Scores.Overall,
			ProjectIntent:      ev.Repo.Description,
			ArchitectureSignal: "Repository has limited testing signals, reducing architecture confidence.",
			Risk:               "Primary risk is uneven maturity across repository evidence.",
		}
		if f.ProjectIntent == "" {
			f.ProjectIntent = "Project intent not clearly documented."
		}
		if ev.Signals.Tests.HasTests {
			f.ArchitectureSignal = "Repository shows testing signals and structured source layout."
		}
		if ev.Signals.RecentCommits90d == 0 {
			f.Risk = "No commit activity in last 90 days."
		}
		out = append(out, f)
	}
	return out
}
