package analysis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/hirescope/internal/cache"
	apperrors "github.com/ZanzyTHEbar/hirescope/internal/errors"
	"github.com/ZanzyTHEbar/hirescope/internal/monitoring"
	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

// recentWindow is the lookback of the scoped commit probe
const recentWindow = 90 * 24 * time.Hour

// CommitCounter estimates how many commits match a branch and optional since
// filter. A zero since means the whole history.
type CommitCounter interface {
	CountCommits(ctx context.Context, owner, repo, branch string, since time.Time) (int, error)
}

// CommitEstimator runs the lifetime and 90-day probes for a repository and
// caches the combined metrics per owner, repo and branch.
type CommitEstimator struct {
	counter CommitCounter
	cache   cache.JSONView[types.CommitMetrics]
	metrics *monitoring.Metrics
	now     func() time.Time
}

// NewCommitEstimator creates an estimator backed by the remote-API cache.
// metrics may be nil.
func NewCommitEstimator(counter CommitCounter, apiCache *cache.Cache[[]byte], metrics *monitoring.Metrics) *CommitEstimator {
	return &CommitEstimator{
		counter: counter,
		cache:   cache.NewJSONView[types.CommitMetrics](apiCache),
		metrics: metrics,
		now:     time.Now,
	}
}

func commitMetricsKey(owner, repo, branch string) string {
	return "commit-metrics|" + owner + "|" + repo + "|" + branch
}

// CommitMetrics never fails: a failed probe degrades its count to 0
func (e *CommitEstimator) CommitMetrics(ctx context.Context, repo types.RepoCandidate) types.CommitMetrics {
	key := commitMetricsKey(repo.Owner, repo.Name, repo.DefaultBranch)
	if cached, ok := e.cache.Get(key); ok {
		return cached
	}

	since := e.now().Add(-recentWindow).UTC()

	var total, recent apperrors.Result[int]
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		total = apperrors.Try(func() (int, error) {
			return e.counter.CountCommits(ctx, repo.Owner, repo.Name, repo.DefaultBranch, time.Time{})
		})
	}()
	go func() {
		defer wg.Done()
		recent = apperrors.Try(func() (int, error) {
			return e.counter.CountCommits(ctx, repo.Owner, repo.Name, repo.DefaultBranch, since)
		})
	}()
	wg.Wait()

	degrade := func(probe string) func(error) {
		return func(err error) {
			if e.metrics != nil {
				e.metrics.IncrementCommitProbeFailure()
			}
			slog.Warn("Commit probe degraded to zero",
				"repo", repo.Owner+"/"+repo.Name,
				"probe", probe,
				"error", err,
			)
		}
	}

	recentCount := apperrors.Collapse(recent, 0, degrade("recent"))
	metrics := types.CommitMetrics{
		TotalCommits:       apperrors.Collapse(total, 0, degrade("total")),
		RecentCommits90d:   recentCount,
		CommitsPerMonth90d: roundHalfUp(float64(recentCount)/3*10) / 10,
	}

	if ctx.Err() == nil {
		e.cache.Set(key, metrics)
	}
	return metrics
}
