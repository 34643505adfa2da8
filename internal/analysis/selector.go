package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/hirescope/internal/bounded"
	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

// unknownRecencyDays is used when a repository has no push timestamp
const unknownRecencyDays = 3650

// CommitMetricsSource supplies commit activity for a candidate. Implementations
// absorb their own failures and return zero metrics instead.
type CommitMetricsSource interface {
	CommitMetrics(ctx context.Context, repo types.RepoCandidate) types.CommitMetrics
}

// SelectorConfig bounds the selection phases
type SelectorConfig struct {
	MinSelected   int
	MaxSelected   int
	CandidateCap  int
	CommitWorkers int
}

// DefaultSelectorConfig returns the standard 3..5 selection from at most 12 candidates
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		MinSelected:   3,
		MaxSelected:   5,
		CandidateCap:  12,
		CommitWorkers: 4,
	}
}

// SelectionOutcome is the selector's result
type SelectionOutcome struct {
	Selected []types.Selection
	Meta     types.SelectionMeta
}

// Selector narrows an account's repositories to a short representative set
type Selector struct {
	commits CommitMetricsSource
	config  SelectorConfig
	now     func() time.Time
}

// NewSelector creates a selector
func NewSelector(commits CommitMetricsSource, config SelectorConfig) *Selector {
	return &Selector{commits: commits, config: config, now: time.Now}
}

// Eligible reports whether a repository takes part in selection
func Eligible(r types.RepoCandidate) bool {
	return !r.Fork && !r.Archived && r.Size > 0
}

// DaysSince returns whole days elapsed since t, never negative
func DaysSince(t, now time.Time) int {
	if t.IsZero() {
		return unknownRecencyDays
	}
	days := int(math.Floor(now.Sub(t).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

func normalizedLanguage(language string) string {
	l := strings.ToLower(strings.TrimSpace(language))
	if l == "" {
		return "unknown"
	}
	return l
}

// languageFrequency counts repositories per declared language
func languageFrequency(repos []types.RepoCandidate) map[string]int {
	freq := make(map[string]int)
	for _, r := range repos {
		l := normalizedLanguage(r.Language)
		if l == "unknown" {
			continue
		}
		freq[l]++
	}
	return freq
}

// BaseScore computes the metadata-only score of one candidate
func BaseScore(r types.RepoCandidate, freq map[string]int, now time.Time) (int, types.SelectionFactors) {
	recencyDays := DaysSince(r.PushedAt, now)

	recencyScore := 2
	switch {
	case recencyDays <= 14:
		recencyScore = 35
	case recencyDays <= 45:
		recencyScore = 28
	case recencyDays <= 120:
		recencyScore = 20
	case recencyDays <= 240:
		recencyScore = 10
	}

	stars := r.StargazersCount
	if stars < 0 {
		stars = 0
	}
	starsScore := int(math.Min(25, roundHalfUp(math.Log10(float64(stars)+1)*12)))

	maxFreq := 1
	for _, n := range freq {
		if n > maxFreq {
			maxFreq = n
		}
	}
	languageScore := 3
	if l := normalizedLanguage(r.Language); l != "unknown" {
		languageScore = int(roundHalfUp(float64(freq[l]) / float64(maxFreq) * 15))
	}

	sizeScore := 5
	if r.Size >= 120 {
		sizeScore = 10
	}
	if r.Size >= 800 {
		sizeScore = 14
	}

	language := r.Language
	if strings.TrimSpace(language) == "" {
		language = "Unknown"
	}

	factors := types.SelectionFactors{
		RecencyDays:   recencyDays,
		Stars:         stars,
		Language:      language,
		SizeKB:        r.Size,
		RecencyScore:  recencyScore,
		StarsScore:    starsScore,
		LanguageScore: languageScore,
		SizeScore:     sizeScore,
	}
	return recencyScore + starsScore + languageScore + sizeScore, factors
}

// ActivityBonus rewards recent commits, capped at 25 points
func ActivityBonus(recentCommits90d int) int {
	return int(math.Min(25, roundHalfUp(float64(recentCommits90d)*1.6)))
}

// Justification renders the reproducible reason a repository was selected
func Justification(name string, f types.SelectionFactors, m types.CommitMetrics) string {
	return fmt.Sprintf("%s was selected for strong representativeness: %d days since last push, %d stars, %d commits in the last 90 days, and %s as a recurring language signal.",
		name, f.RecencyDays, f.Stars, m.RecentCommits90d, f.Language)
}

// SelectionCount is how many of n ranked candidates are kept
func (s *Selector) SelectionCount(n int) int {
	if n < s.config.MinSelected {
		return n
	}
	if n > s.config.MaxSelected {
		return s.config.MaxSelected
	}
	return n
}

// Select runs cheap filtering, enriches the shortlist with commit metrics,
// and keeps the highest selection scores. Ties keep input order.
func (s *Selector) Select(ctx context.Context, repos []types.RepoCandidate) (SelectionOutcome, error) {
	eligible := make([]types.RepoCandidate, 0, len(repos))
	for _, r := range repos {
		if Eligible(r) {
			eligible = append(eligible, r)
		}
	}

	outcome := SelectionOutcome{
		Selected: []types.Selection{},
		Meta: types.SelectionMeta{
			TotalRepos:    len(repos),
			EligibleRepos: len(eligible),
		},
	}
	if len(eligible) == 0 {
		return outcome, nil
	}

	now := s.now()
	freq := languageFrequency(eligible)

	preliminary := make([]types.Selection, len(eligible))
	for i, r := range eligible {
		base, factors := BaseScore(r, freq, now)
		preliminary[i] = types.Selection{Repo: r, BaseScore: base, Factors: factors}
	}
	sort.SliceStable(preliminary, func(i, j int) bool {
		return preliminary[i].BaseScore > preliminary[j].BaseScore
	})
	if len(preliminary) > s.config.CandidateCap {
		preliminary = preliminary[:s.config.CandidateCap]
	}
	outcome.Meta.ConsideredRepos = len(preliminary)

	enriched, err := bounded.Map(ctx, preliminary, s.config.CommitWorkers,
		func(ctx context.Context, _ int, c types.Selection) (types.Selection, error) {
			c.Metrics = s.commits.CommitMetrics(ctx, c.Repo)
			c.ActivityBonus = ActivityBonus(c.Metrics.RecentCommits90d)
			c.SelectionScore = c.BaseScore + c.ActivityBonus
			c.Justification = Justification(c.Repo.Name, c.Factors, c.Metrics)
			return c, nil
		})
	if err != nil {
		return outcome, err
	}
	// probes cut short by cancellation degraded to zero
	if err := ctx.Err(); err != nil {
		return outcome, err
	}

	sort.SliceStable(enriched, func(i, j int) bool {
		return enriched[i].SelectionScore > enriched[j].SelectionScore
	})
	outcome.Selected = enriched[:s.SelectionCount(len(enriched))]
	return outcome, nil
}
