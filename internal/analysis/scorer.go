package analysis

import (
	"math"

	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

// roundHalfUp rounds halves toward positive infinity, the rounding every
// score and bonus in this package uses.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// clampScore rounds x and clamps it to [0, 100]
func clampScore(x float64) int {
	if math.IsNaN(x) {
		return 0
	}
	return int(clip(roundHalfUp(x), 0, 100))
}

type tier struct {
	min    int
	points int
}

// tiered returns the points of the first tier value reaches, or floor.
// Tiers are ordered highest threshold first.
func tiered(value int, tiers []tier, floor int) int {
	for _, t := range tiers {
		if value >= t.min {
			return t.points
		}
	}
	return floor
}

func pick(cond bool, yes, no int) int {
	if cond {
		return yes
	}
	return no
}

// ScoreRepo applies the deterministic rubric to one repository's signals.
//
// codeOrganization weighs README and test presence, source volume, a root
// entry count in the 3..18 band, and line count. projectMaturity weighs README
// depth, license, line count, commit depth, and issue/wiki enablement.
// consistencyActivity weighs push recency, 90-day cadence and commit depth,
// minus 10 for archived repositories.
func ScoreRepo(s types.RepoSignals) types.ScoreSet {
	topLevel := len(s.TopLevelEntries)

	codeOrganization := clampScore(float64(
		pick(s.Readme.Present, 22, 6) +
			pick(s.Tests.HasTests, 26, 2) +
			tiered(s.SourceFileCount, []tier{{8, 20}, {3, 12}}, 4) +
			pick(topLevel >= 3 && topLevel <= 18, 18, 10) +
			pick(s.LOCEstimate >= 180, 14, 7),
	))

	projectMaturity := clampScore(float64(
		tiered(s.Readme.Length, []tier{{700, 20}, {180, 14}}, 6) +
			pick(s.LicensePresent, 18, 5) +
			tiered(s.LOCEstimate, []tier{{500, 18}, {180, 12}}, 6) +
			tiered(s.TotalCommits, []tier{{120, 24}, {40, 16}, {10, 10}}, 4) +
			pick(s.HasIssues, 8, 4) +
			pick(s.HasWiki, 6, 2),
	))

	recency := 3
	switch {
	case s.RecencyDays <= 14:
		recency = 36
	case s.RecencyDays <= 45:
		recency = 28
	case s.RecencyDays <= 120:
		recency = 20
	case s.RecencyDays <= 240:
		recency = 11
	}

	consistencyActivity := clampScore(float64(
		recency +
			tiered(s.RecentCommits90d, []tier{{35, 34}, {15, 24}, {5, 14}, {1, 8}}, 2) +
			tiered(s.TotalCommits, []tier{{80, 22}, {25, 14}, {8, 9}}, 4) +
			pick(s.Archived, -10, 0),
	))

	return types.ScoreSet{
		Overall:             clampScore(float64(codeOrganization+projectMaturity+consistencyActivity) / 3),
		CodeOrganization:    codeOrganization,
		ProjectMaturity:     projectMaturity,
		ConsistencyActivity: consistencyActivity,
	}
}

// selectionWeight is the aggregation weight of one repository
func selectionWeight(selectionScore int) float64 {
	return math.Max(1, float64(selectionScore))
}

// AggregateProfileScores combines per-repository scores into an account score.
// Sub-scores are means weighted by selection score (minimum 1); overall then
// applies the role weights across those means. No evidence scores zero.
func AggregateProfileScores(repos []types.SelectedRepoEvidence, weights types.RoleWeights) types.ProfileScores {
	if len(repos) == 0 {
		return types.ProfileScores{}
	}

	var total, org, maturity, activity float64
	for _, r := range repos {
		w := selectionWeight(r.SelectionScore)
		total += w
		org += float64(r.Scores.CodeOrganization) * w
		maturity += float64(r.Scores.ProjectMaturity) * w
		activity += float64(r.Scores.ConsistencyActivity) * w
	}
	org /= total
	maturity /= total
	activity /= total

	set := types.ScoreSet{
		Overall: clampScore(org*weights.CodeOrganization +
			maturity*weights.ProjectMaturity +
			activity*weights.ConsistencyActivity),
		CodeOrganization:    clampScore(org),
		ProjectMaturity:     clampScore(maturity),
		ConsistencyActivity: clampScore(activity),
	}

	return types.ProfileScores{
		ScoreSet:            set,
		CodeQuality:         set.CodeOrganization,
		ProjectCompleteness: set.ProjectMaturity,
		ProfessionalSignal:  set.ConsistencyActivity,
	}
}
