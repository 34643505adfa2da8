package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

const noBlurb = "No evaluation-mode introduction returned."

var (
	repoReference    = regexp.MustCompile(`(?i)(github|repository|repositories|repo)`)
	contextReference = regexp.MustCompile(`(?i)(context|requested|emphasis|focus|priorit|guidance)`)
)

// EvaluationBlurb is the deterministic four-sentence introduction to the
// evaluation mode: the role note, the sampled evidence, how the caller's
// context was used, and the overall score.
func EvaluationBlurb(role types.RoleConfig, context string, repos []types.SelectedRepoEvidence, scores types.ProfileScores) string {
	label := strings.TrimSpace(role.Label)
	if label == "" {
		label = "Recruiter"
	}

	impact := CompactLine(role.ImpactNote, 280)
	var first string
	switch {
	case impact == "":
		first = label + " mode applies deterministic weighting across architecture, project maturity, and activity consistency."
	case strings.HasSuffix(impact, "."):
		first = impact
	default:
		first = impact + "."
	}

	second := "GitHub evidence was limited because no representative repositories were available for deterministic scoring."
	if len(repos) > 0 {
		weights, total := languageWeights(repos)
		var dominant []string
		for _, l := range topLanguages(repos, weights, 3) {
			dominant = append(dominant, fmt.Sprintf("%s (%d%%)", FormatLanguageLabel(l.language), percent(l.weight, total)))
		}
		stacks := "mixed/undeclared stacks"
		if len(dominant) > 0 {
			stacks = strings.Join(dominant, ", ")
		}

		var names []string
		recent := 0
		for _, ev := range repos {
			recent += ev.Signals.RecentCommits90d
			if n := strings.TrimSpace(ev.Repo.Name); n != "" && len(names) < 3 {
				names = append(names, n)
			}
		}
		sampled := ""
		if len(names) > 0 {
			sampled = " (" + strings.Join(names, ", ") + ")"
		}

		second = fmt.Sprintf("GitHub evidence was drawn from %d representative repositories%s, showing dominant language signals in %s, tests in %d/%d repos, and %d commits over the last 90 days across sampled projects.",
			len(repos), sampled, stacks, reposWithTests(repos), len(repos), recent)
	}

	third := "No extra context was provided in the context box, so interpretation stayed anchored to measurable GitHub repository evidence."
	if clean := strings.ReplaceAll(CompactLine(context, 190), `"`, "'"); clean != "" {
		third = fmt.Sprintf(`The context box emphasis was "%s", and this report explicitly used that guidance when interpreting the repository evidence.`, clean)
	}

	fourth := fmt.Sprintf("The overall deterministic readiness score is %d/100, so Evaluation Mode: %s frames fit based on role-aligned delivery quality, maturity, and execution consistency.",
		scores.Overall, label)

	return strings.Join([]string{first, second, third, fourth}, " ")
}

// NormalizeBlurb accepts a synthesized introduction only when it has three
// or four sentences, refers to the repositories and says how the caller's
// context was treated, whether or not any was given. Otherwise the fallback
// is used.
func NormalizeBlurb(candidate, fallback string) string {
	normalized := CompactLine(candidate, 1100)
	fallbackValue := CompactLine(fallback, 1100)
	if fallbackValue == "" {
		fallbackValue = noBlurb
	}

	if normalized == "" {
		return fallbackValue
	}
	if n := SentenceCount(normalized); n < 3 || n > 4 {
		return fallbackValue
	}
	if !repoReference.MatchString(normalized) {
		return fallbackValue
	}
	if !contextReference.MatchString(normalized) {
		return fallbackValue
	}
	return normalized
}
