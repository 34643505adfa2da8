// Package leaderboard ranks accounts by their latest analysis per role and
// serves per-account analysis history.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/hirescope/internal/analysis"
	"github.com/ZanzyTHEbar/hirescope/internal/database"
	apperrors "github.com/ZanzyTHEbar/hirescope/internal/errors"
	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

// Page sizes
const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// Store persists analysis records
type Store interface {
	SaveAnalysis(ctx context.Context, rec *database.AnalysisRecord) error
	RecentForUser(ctx context.Context, username string, limit int) ([]database.AnalysisRecord, error)
	TopByRole(ctx context.Context, role string, limit int) ([]database.AnalysisRecord, error)
}

// Entry is one ranked account
type Entry struct {
	Rank int `json:"rank"`
	database.AnalysisRecord
}

// Response represents the response for leaderboard queries
type Response struct {
	Role        string    `json:"role"`
	Entries     []Entry   `json:"entries"`
	Total       int       `json:"total"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// HistoryResponse lists an account's recent analyses
type HistoryResponse struct {
	Username string                    `json:"username"`
	Analyses []database.AnalysisRecord `json:"analyses"`
}

// Service handles leaderboard operations
type Service struct {
	store Store
	cache *LeaderboardCache
	now   func() time.Time
}

// NewService creates a new leaderboard service
func NewService(store Store, cache *LeaderboardCache) *Service {
	if cache == nil {
		cache = NewLeaderboardCache(15 * time.Minute)
	}
	return &Service{store: store, cache: cache, now: time.Now}
}

func pageSize(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// Record saves the outcome of an analysis and invalidates its role's board
func (s *Service) Record(ctx context.Context, result types.AnalysisResult) error {
	rec := database.NewAnalysisRecord(
		result.Profile.Login,
		result.Role.SelectedRole,
		result.Report.Scores.ScoreSet,
		len(result.Evidence.Repos),
	)
	if err := s.store.SaveAnalysis(ctx, rec); err != nil {
		return err
	}
	s.cache.InvalidateRole(rec.Role)

	slog.Info("Analysis saved to history",
		"username", rec.Username,
		"role", rec.Role,
		"overall", rec.Overall,
	)
	return nil
}

// GetLeaderboard returns the ranked board for a built-in role key
func (s *Service) GetLeaderboard(ctx context.Context, role string, limit int) (*Response, error) {
	key := strings.ToLower(strings.TrimSpace(role))
	if analysis.NormalizeRole(key) != key {
		return nil, apperrors.NewValidationError(fmt.Sprintf("Unknown role %q.", role), "role", role)
	}
	limit = pageSize(limit)

	if cached, ok := s.cache.GetLeaderboard(key, limit); ok {
		return cached, nil
	}

	records, err := s.store.TopByRole(ctx, key, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("leaderboard query failed", err)
	}

	entries := make([]Entry, len(records))
	for i, rec := range records {
		entries[i] = Entry{Rank: i + 1, AnalysisRecord: rec}
	}
	response := &Response{
		Role:        key,
		Entries:     entries,
		Total:       len(entries),
		GeneratedAt: s.now().UTC(),
	}
	s.cache.SetLeaderboard(key, limit, response)
	return response, nil
}

// History returns an account's recent analyses, newest first
func (s *Service) History(ctx context.Context, username string, limit int) (*HistoryResponse, error) {
	login, err := analysis.ParseGitHubUsername(username)
	if err != nil {
		return nil, err
	}

	records, err := s.store.RecentForUser(ctx, login, pageSize(limit))
	if err != nil {
		return nil, apperrors.NewInternalError("history query failed", err)
	}
	return &HistoryResponse{Username: strings.ToLower(login), Analyses: records}, nil
}

// WarmCache pre-populates the default page of every role's board
func (s *Service) WarmCache(ctx context.Context) {
	slog.Info("Starting leaderboard cache warming")

	for _, role := range analysis.Roles() {
		if _, err := s.GetLeaderboard(ctx, role.Key, DefaultLimit); err != nil {
			slog.Error("Failed to warm cache for leaderboard", "error", err, "role", role.Key)
		}
	}

	slog.Info("Leaderboard cache warming completed")
}

// GetStats returns cache statistics
func (s *Service) GetStats() map[string]interface{} {
	return s.cache.GetStats()
}
