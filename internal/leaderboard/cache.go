package leaderboard

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ZanzyTHEbar/hirescope/internal/cache"
)

// LeaderboardCache provides caching for leaderboard data
type LeaderboardCache struct {
	store *cache.Cache[[]byte]
	view  cache.JSONView[Response]
}

// NewLeaderboardCache creates a leaderboard cache with its own byte cache
func NewLeaderboardCache(ttl time.Duration) *LeaderboardCache {
	return NewLeaderboardCacheOn(cache.New[[]byte]("leaderboard", ttl))
}

// NewLeaderboardCacheOn wraps an existing byte cache, typically one a
// Janitor already sweeps.
func NewLeaderboardCacheOn(store *cache.Cache[[]byte]) *LeaderboardCache {
	return &LeaderboardCache{
		store: store,
		view:  cache.NewJSONView[Response](store),
	}
}

func rolePrefix(role string) string {
	return "leaderboard:" + role + ":"
}

func cacheKey(role string, limit int) string {
	return fmt.Sprintf("%s%d", rolePrefix(role), limit)
}

// GetLeaderboard retrieves cached leaderboard data
func (lc *LeaderboardCache) GetLeaderboard(role string, limit int) (*Response, bool) {
	response, found := lc.view.Get(cacheKey(role, limit))
	if !found {
		return nil, false
	}

	slog.Debug("Leaderboard cache hit", "role", role, "limit", limit)
	return &response, true
}

// SetLeaderboard caches leaderboard data
func (lc *LeaderboardCache) SetLeaderboard(role string, limit int, response *Response) {
	lc.view.Set(cacheKey(role, limit), *response)
	slog.Debug("Leaderboard cached", "role", role, "limit", limit, "entries", len(response.Entries))
}

// InvalidateRole drops every cached page of one role's leaderboard
func (lc *LeaderboardCache) InvalidateRole(role string) {
	if n := lc.store.DeletePrefix(rolePrefix(role)); n > 0 {
		slog.Debug("Invalidated leaderboard cache", "role", role, "entries", n)
	}
}

// GetStats returns cache statistics
func (lc *LeaderboardCache) GetStats() map[string]interface{} {
	return lc.store.Stats()
}
