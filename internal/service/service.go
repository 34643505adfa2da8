// Package service orchestrates an analysis: account evidence, role-weighted
// scoring, context links, narrative synthesis and the result caches.
package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/ZanzyTHEbar/hirescope/internal/analysis"
	"github.com/ZanzyTHEbar/hirescope/internal/cache"
	"github.com/ZanzyTHEbar/hirescope/internal/config"
	"github.com/ZanzyTHEbar/hirescope/internal/monitoring"
	"github.com/ZanzyTHEbar/hirescope/internal/report"
	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

// GitHub is the account-level part of the hosting API
type GitHub interface {
	FetchUser(ctx context.Context, login string) (types.Profile, error)
	ListRepos(ctx context.Context, login string) ([]types.RepoCandidate, error)
}

// RepoSelector shortlists representative repositories
type RepoSelector interface {
	Select(ctx context.Context, repos []types.RepoCandidate) (analysis.SelectionOutcome, error)
}

// RepoInspector turns shortlisted repositories into scored evidence. It
// fails only when ctx is done.
type RepoInspector interface {
	InspectAll(ctx context.Context, selected []types.Selection) ([]types.SelectedRepoEvidence, error)
}

// LinkResolver fetches context links. It fails only when ctx is done.
type LinkResolver interface {
	Resolve(ctx context.Context, links []types.ContextLink) ([]types.ExternalContext, error)
}

// HistoryRecorder persists finished analyses
type HistoryRecorder interface {
	Record(ctx context.Context, result types.AnalysisResult) error
}

// Caches are the process-wide caches, built once at startup
type Caches struct {
	API         *cache.Cache[[]byte]
	Profile     *cache.Cache[types.ProfileAnalysis]
	Result      *cache.Cache[types.AnalysisResult]
	External    *cache.Cache[types.ExternalContext]
	Leaderboard *cache.Cache[[]byte]
}

// NewCaches builds every cache with its configured lifetime
func NewCaches(cfg config.CacheConfig) *Caches {
	return &Caches{
		API:         cache.New[[]byte]("github-api", cfg.APITTL),
		Profile:     cache.New[types.ProfileAnalysis]("profile", cfg.ProfileTTL),
		Result:      cache.New[types.AnalysisResult]("result", cfg.ResultTTL),
		External:    cache.New[types.ExternalContext]("external-context", cfg.ExternalTTL),
		Leaderboard: cache.New[[]byte]("leaderboard", cfg.LeaderboardTTL),
	}
}

// Janitor returns a janitor that sweeps every cache
func (c *Caches) Janitor(interval time.Duration) *cache.Janitor {
	return cache.NewJanitor(interval, c.API, c.Profile, c.Result, c.External, c.Leaderboard)
}

// Stats reports every cache by name
func (c *Caches) Stats() map[string]interface{} {
	return map[string]interface{}{
		c.API.Name():         c.API.Stats(),
		c.Profile.Name():     c.Profile.Stats(),
		c.Result.Name():      c.Result.Stats(),
		c.External.Name():    c.External.Stats(),
		c.Leaderboard.Name(): c.Leaderboard.Stats(),
	}
}

// Options wires a Service. Synthesizer and History are optional.
type Options struct {
	GitHub      GitHub
	Selector    RepoSelector
	Inspector   RepoInspector
	Links       LinkResolver
	Synthesizer report.Synthesizer
	History     HistoryRecorder
	Caches      *Caches
	MaxLinks    int

	// BuildTimeout bounds one shared profile build, which outlives the
	// request that started it
	BuildTimeout time.Duration

	Metrics *monitoring.Metrics
	Logger  *monitoring.Logger
}

// Service runs analyses
type Service struct {
	github      GitHub
	selector    RepoSelector
	inspector   RepoInspector
	links       LinkResolver
	synthesizer report.Synthesizer
	history     HistoryRecorder
	caches      *Caches
	maxLinks    int
	metrics     *monitoring.Metrics
	logger      *monitoring.Logger

	buildTimeout time.Duration
	builds       singleflight.Group
	now    func() time.Time
	newID  func() string
}

// New creates a service
func New(opts Options) *Service {
	if opts.MaxLinks <= 0 {
		opts.MaxLinks = 8
	}
	if opts.BuildTimeout <= 0 {
		opts.BuildTimeout = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = monitoring.NewLoggerTo(io.Discard, 0)
	}
	if opts.Metrics == nil {
		opts.Metrics = monitoring.NewMetrics()
	}
	return &Service{
		github:       opts.GitHub,
		selector:     opts.Selector,
		inspector:    opts.Inspector,
		links:        opts.Links,
		synthesizer:  opts.Synthesizer,
		history:      opts.History,
		caches:       opts.Caches,
		maxLinks:     opts.MaxLinks,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		buildTimeout: opts.BuildTimeout,
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
	}
}

// Caches exposes the caches the service reads and writes
func (s *Service) Caches() *Caches {
	return s.caches
}
