package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/hirescope/internal/cache"
	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type staticCommits map[string]types.CommitMetrics

func (s staticCommits) CommitMetrics(_ context.Context, repo types.RepoCandidate) types.CommitMetrics {
	return s[repo.Name]
}

func candidate(name string, daysAgo int) types.RepoCandidate {
	return types.RepoCandidate{
		Name:          name,
		Owner:         "octocat",
		Language:      "Go",
		DefaultBranch: "main",
		Size:          500,
		PushedAt:      fixedNow.Add(-time.Duration(daysAgo) * 24 * time.Hour),
	}
}

func newTestSelector(commits CommitMetricsSource) *Selector {
	s := NewSelector(commits, DefaultSelectorConfig())
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestSelectCount(t *testing.T) {
	tests := []struct {
		eligible int
		expected int
	}{
		{eligible: 1, expected: 1},
		{eligible: 2, expected: 2},
		{eligible: 3, expected: 3},
		{eligible: 4, expected: 4},
		{eligible: 20, expected: 5},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d eligible", tt.eligible), func(t *testing.T) {
			repos := make([]types.RepoCandidate, 0, tt.eligible+2)
			for i := 0; i < tt.eligible; i++ {
				repos = append(repos, candidate(fmt.Sprintf("repo-%d", i), i))
			}
			fork := candidate("fork", 1)
			fork.Fork = true
			empty := candidate("empty", 1)
			empty.Size = 0
			repos = append(repos, fork, empty)

			out, err := newTestSelector(staticCommits{}).Select(context.Background(), repos)
			require.NoError(t, err)

			assert.Len(t, out.Selected, tt.expected)
			assert.Equal(t, tt.eligible+2, out.Meta.TotalRepos)
			assert.Equal(t, tt.eligible, out.Meta.EligibleRepos)
			assert.LessOrEqual(t, out.Meta.ConsideredRepos, 12)
		})
	}
}

func TestSelectNothingEligible(t *testing.T) {
	archived := candidate("old", 1)
	archived.Archived = true

	out, err := newTestSelector(staticCommits{}).Select(context.Background(), []types.RepoCandidate{archived})
	require.NoError(t, err)

	assert.Empty(t, out.Selected)
	assert.Equal(t, types.SelectionMeta{TotalRepos: 1}, out.Meta)
}

func TestSelectOrdering(t *testing.T) {
	repos := []types.RepoCandidate{
		candidate("alpha", 300),
		candidate("beta", 300),
		candidate("gamma", 300),
		candidate("delta", 300),
	}
	commits := staticCommits{
		"gamma": {RecentCommits90d: 10, TotalCommits: 50},
	}

	out, err := newTestSelector(commits).Select(context.Background(), repos)
	require.NoError(t, err)
	require.Len(t, out.Selected, 4)

	names := make([]string, len(out.Selected))
	for i, s := range out.Selected {
		names[i] = s.Repo.Name
	}
	assert.Equal(t, []string{"gamma", "alpha", "beta", "delta"}, names)

	top := out.Selected[0]
	assert.Equal(t, 16, top.ActivityBonus)
	assert.Equal(t, top.BaseScore+16, top.SelectionScore)
	for i := 1; i < len(out.Selected); i++ {
		assert.GreaterOrEqual(t, out.Selected[i-1].SelectionScore, out.Selected[i].SelectionScore)
	}
}

func TestSelectCapsCommitProbes(t *testing.T) {
	var calls atomic.Int32
	counter := countingCommits{calls: &calls}

	repos := make([]types.RepoCandidate, 30)
	for i := range repos {
		repos[i] = candidate(fmt.Sprintf("repo-%d", i), i)
	}

	out, err := newTestSelector(counter).Select(context.Background(), repos)
	require.NoError(t, err)

	assert.Equal(t, int32(12), calls.Load())
	assert.Equal(t, 12, out.Meta.ConsideredRepos)
	assert.Len(t, out.Selected, 5)
}

func TestSelectReturnsCancellation(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestSelector(countingCommits{calls: &calls}).Select(ctx, []types.RepoCandidate{
		candidate("alpha", 1), candidate("beta", 2), candidate("gamma", 3),
	})

	assert.ErrorIs(t, err, context.Canceled)
}

type countingCommits struct {
	calls *atomic.Int32
}

func (c countingCommits) CommitMetrics(context.Context, types.RepoCandidate) types.CommitMetrics {
	c.calls.Add(1)
	return types.CommitMetrics{}
}

func TestBaseScore(t *testing.T) {
	r := candidate("api", 10)
	r.StargazersCount = 99
	r.Size = 900

	score, factors := BaseScore(r, map[string]int{"go": 2, "python": 4}, fixedNow)

	assert.Equal(t, 10, factors.RecencyDays)
	assert.Equal(t, 35, factors.RecencyScore)
	assert.Equal(t, 24, factors.StarsScore)
	assert.Equal(t, 8, factors.LanguageScore)
	assert.Equal(t, 14, factors.SizeScore)
	assert.Equal(t, 35+24+8+14, score)

	r.Language = ""
	r.PushedAt = time.Time{}
	_, factors = BaseScore(r, map[string]int{}, fixedNow)
	assert.Equal(t, "Unknown", factors.Language)
	assert.Equal(t, 3, factors.LanguageScore)
	assert.Equal(t, unknownRecencyDays, factors.RecencyDays)
	assert.Equal(t, 2, factors.RecencyScore)
}

func TestActivityBonus(t *testing.T) {
	assert.Equal(t, 0, ActivityBonus(0))
	assert.Equal(t, 2, ActivityBonus(1))
	assert.Equal(t, 25, ActivityBonus(40))
}

func TestJustification(t *testing.T) {
	f := types.SelectionFactors{RecencyDays: 4, Stars: 12, Language: "Go"}
	got := Justification("hirescope", f, types.CommitMetrics{RecentCommits90d: 7})

	assert.Equal(t, "hirescope was selected for strong representativeness: 4 days since last push, 12 stars, 7 commits in the last 90 days, and Go as a recurring language signal.", got)
}

type fakeCounter struct {
	mu       sync.Mutex
	calls    int
	total    int
	recent   int
	totalErr error
	since    []time.Time
}

func (f *fakeCounter) CountCommits(_ context.Context, _, _, _ string, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.since = append(f.since, since)
	if since.IsZero() {
		return f.total, f.totalErr
	}
	return f.recent, nil
}

func TestCommitEstimator(t *testing.T) {
	t.Run("combines both probes and caches", func(t *testing.T) {
		counter := &fakeCounter{total: 140, recent: 16}
		est := NewCommitEstimator(counter, cache.New[[]byte]("api", time.Hour), nil)
		est.now = func() time.Time { return fixedNow }

		m := est.CommitMetrics(context.Background(), candidate("api", 1))
		assert.Equal(t, types.CommitMetrics{TotalCommits: 140, RecentCommits90d: 16, CommitsPerMonth90d: 5.3}, m)
		assert.Contains(t, counter.since, fixedNow.Add(-90*24*time.Hour))

		again := est.CommitMetrics(context.Background(), candidate("api", 1))
		assert.Equal(t, m, again)
		assert.Equal(t, 2, counter.calls)
	})

	t.Run("failed probe degrades to zero", func(t *testing.T) {
		counter := &fakeCounter{recent: 3, totalErr: errors.New("boom")}
		est := NewCommitEstimator(counter, cache.New[[]byte]("api", time.Hour), nil)

		m := est.CommitMetrics(context.Background(), candidate("api", 1))
		assert.Equal(t, 0, m.TotalCommits)
		assert.Equal(t, 3, m.RecentCommits90d)
		assert.Equal(t, 1.0, m.CommitsPerMonth90d)
	})

	t.Run("cancelled probes are not cached", func(t *testing.T) {
		counter := &fakeCounter{total: 140, recent: 16}
		est := NewCommitEstimator(counter, cache.New[[]byte]("api", time.Hour), nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		est.CommitMetrics(ctx, candidate("api", 1))
		m := est.CommitMetrics(context.Background(), candidate("api", 1))

		assert.Equal(t, 140, m.TotalCommits)
		assert.Equal(t, 4, counter.calls, "second call probes again")
	})
}
