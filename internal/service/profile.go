package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

// DemoProfiles are the accounts pre-built when cache warming is enabled
var DemoProfiles = []string{"torvalds", "gaearon", "tj", "sindresorhus"}

// BuildProfileAnalysis fetches the account and its repositories, shortlists
// representative repositories and inspects them. Only account-level
// failures are returned; per-repository problems degrade inside the
// evidence.
func (s *Service) BuildProfileAnalysis(ctx context.Context, username string) (types.ProfileAnalysis, error) {
	var (
		profile types.Profile
		repos   []types.RepoCandidate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = s.github.FetchUser(gctx, username)
		return err
	})
	g.Go(func() error {
		var err error
		repos, err = s.github.ListRepos(gctx, username)
		return err
	})
	if err := g.Wait(); err != nil {
		return types.ProfileAnalysis{}, err
	}

	outcome, err := s.selector.Select(ctx, repos)
	if err != nil {
		return types.ProfileAnalysis{}, err
	}

	evidence, err := s.inspector.InspectAll(ctx, outcome.Selected)
	if err != nil {
		return types.ProfileAnalysis{}, err
	}

	return types.ProfileAnalysis{
		Profile: profile,
		Evidence: types.Evidence{
			SelectionMeta: outcome.Meta,
			Repos:         evidence,
		},
	}, nil
}

// profileAnalysis serves from the profile cache, otherwise builds and
// stores. Concurrent builds of the same account share one run, detached from
// any single caller: a caller that goes away stops waiting, the build does not.
func (s *Service) profileAnalysis(ctx context.Context, username string) (types.ProfileAnalysis, string, error) {
	if cached, ok := s.caches.Profile.Get(username); ok {
		s.metrics.IncrementCacheHit()
		s.logger.CacheLogger(s.caches.Profile.Name(), username, true, s.caches.Profile.Size())
		return cached, types.CacheSourceProfile, nil
	}
	s.metrics.IncrementCacheMiss()
	s.logger.CacheLogger(s.caches.Profile.Name(), username, false, s.caches.Profile.Size())

	build := s.builds.DoChan(username, func() (interface{}, error) {
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.buildTimeout)
		defer cancel()

		pa, err := s.BuildProfileAnalysis(bctx, username)
		if err != nil {
			return nil, err
		}
		s.caches.Profile.Set(username, pa)
		return pa, nil
	})

	select {
	case <-ctx.Done():
		return types.ProfileAnalysis{}, "", ctx.Err()
	case res := <-build:
		if res.Err != nil {
			return types.ProfileAnalysis{}, "", res.Err
		}
		return res.Val.(types.ProfileAnalysis), types.CacheSourceFresh, nil
	}
}

// WarmProfiles builds and caches the given accounts one at a time. Failures
// are logged and skipped.
func (s *Service) WarmProfiles(ctx context.Context, usernames []string) int {
	warmed := 0
	for _, username := range usernames {
		if ctx.Err() != nil {
			break
		}
		start := time.Now()
		pa, err := s.BuildProfileAnalysis(ctx, username)
		if err != nil {
			s.logger.Warn("Warm cache failed", "username", username, "error", err)
			continue
		}
		s.caches.Profile.Set(username, pa)
		warmed++
		s.logger.Info("Warm cache", "username", username, "repos", len(pa.Evidence.Repos), "duration_ms", time.Since(start).Milliseconds())
	}
	return warmed
}
