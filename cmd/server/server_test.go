package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/hirescope/internal/config"
	apperrors "github.com/ZanzyTHEbar/hirescope/internal/errors"
	"github.com/ZanzyTHEbar/hirescope/internal/leaderboard"
	"github.com/ZanzyTHEbar/hirescope/internal/middleware"
	"github.com/ZanzyTHEbar/hirescope/internal/monitoring"
	"github.com/ZanzyTHEbar/hirescope/internal/ratelimit"
	"github.com/ZanzyTHEbar/hirescope/internal/security"
	"github.com/ZanzyTHEbar/hirescope/internal/service"
	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

type stubAnalyzer struct {
	err  error
	last types.AnalyzeRequest
}

func (s *stubAnalyzer) Analyze(_ context.Context, req types.AnalyzeRequest) (types.AnalysisResult, error) {
	s.last = req
	if s.err != nil {
		return types.AnalysisResult{}, s.err
	}
	return types.AnalysisResult{
		ID:      "abc",
		Profile: types.Profile{Login: req.Username},
		Report: types.Report{
			Scores: types.ProfileScores{ScoreSet: types.ScoreSet{Overall: 72, CodeOrganization: 80, ProjectMaturity: 70, ConsistencyActivity: 60}},
		},
		Cache: types.CacheInfo{Source: types.CacheSourceFresh},
	}, nil
}

type stubBoards struct{}

func (stubBoards) GetLeaderboard(_ context.Context, role string, limit int) (*leaderboard.Response, error) {
	if role != "developer" {
		return nil, apperrors.NewValidationError("Unknown role.")
	}
	return &leaderboard.Response{Role: role, Entries: []leaderboard.Entry{}, Total: limit}, nil
}

func (stubBoards) History(_ context.Context, username string, _ int) (*leaderboard.HistoryResponse, error) {
	return &leaderboard.HistoryResponse{Username: username}, nil
}

func (stubBoards) GetStats() map[string]interface{} {
	return map[string]interface{}{"entries": 0}
}

func newTestServer(analyzer Analyzer, maxRequests int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	metrics := monitoring.NewMetrics()
	s := &server{
		analyzer: analyzer,
		boards:   stubBoards{},
		caches: service.NewCaches(config.CacheConfig{
			APITTL: time.Minute, ProfileTTL: time.Minute, ResultTTL: time.Minute,
			ExternalTTL: time.Minute, LeaderboardTTL: time.Minute,
		}),
		limiter:     ratelimit.NewRateLimiter(nil, ratelimit.Config{MaxRequests: maxRequests, Window: time.Minute}, metrics),
		security:    security.NewMiddleware(security.DefaultConfig()),
		compression: middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()),
		metrics:     metrics,
		logger:      monitoring.NewLoggerTo(io.Discard, 0),
		githubAuth:  "GITHUB_TOKEN",
		version:     "test",
	}
	return s.routes()
}

func postAnalyze(r http.Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestServer(&stubAnalyzer{}, 20)

	tests := []struct {
		name           string
		method         string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "GET /health returns OK status",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"ok":true,"github_auth":"GITHUB_TOKEN","version":"test"}`,
		},
		{
			name:           "POST /health is not routed",
			method:         http.MethodPost,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/health", nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		err            error
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "valid request",
			body:           `{"username":"octocat","role":"developer","contextLinks":["https://octo.dev",{"label":"cv","url":"https://cv.dev"}]}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "malformed JSON",
			body:           `{"username":`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  msgInvalidJSON,
		},
		{
			name:           "missing username",
			body:           `{"role":"developer"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  msgInvalidInput,
		},
		{
			name:           "unknown account",
			body:           `{"username":"ghost"}`,
			err:            apperrors.NewNotFoundError("GitHub user not found."),
			expectedStatus: http.StatusNotFound,
			expectedError:  "GitHub user not found.",
		},
		{
			name:           "github quota exhausted",
			body:           `{"username":"octocat"}`,
			err:            apperrors.NewGitHubRateLimitError(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), false),
			expectedStatus: http.StatusTooManyRequests,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestServer(&stubAnalyzer{err: tt.err}, 20)

			w := postAnalyze(r, tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, body["error"])
			}
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "octocat", body["profile"].(map[string]interface{})["login"])
			}
		})
	}
}

func TestAnalyzeEndpointPassesContextLinks(t *testing.T) {
	analyzer := &stubAnalyzer{}
	r := newTestServer(analyzer, 20)

	w := postAnalyze(r, `{"username":"octocat","contextLinks":["https://octo.dev",{"label":"cv","url":"https://cv.dev"}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []types.ContextLinkInput{
		{URL: "https://octo.dev"},
		{Label: "cv", URL: "https://cv.dev"},
	}, analyzer.last.ContextLinks)
}

func TestGitHubRateLimitCarriesResetHint(t *testing.T) {
	reset := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := newTestServer(&stubAnalyzer{err: apperrors.NewGitHubRateLimitError(reset, false)}, 20)

	w := postAnalyze(r, `{"username":"octocat"}`)

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "2026-01-02T03:04:05Z", body["reset_at"])
	assert.Contains(t, body["error"], "GITHUB_TOKEN")
}

func TestAnalyzeRateLimit(t *testing.T) {
	r := newTestServer(&stubAnalyzer{}, 2)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, postAnalyze(r, `{"username":"octocat"}`).Code)
	}
	w := postAnalyze(r, `{"username":"octocat"}`)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestAnalyzeRejectsNonJSONContentType(t *testing.T) {
	r := newTestServer(&stubAnalyzer{}, 20)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString("username=octocat"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestLeaderboardAndHistoryRoutes(t *testing.T) {
	r := newTestServer(&stubAnalyzer{}, 20)

	tests := []struct {
		path           string
		expectedStatus int
	}{
		{"/leaderboard/developer?limit=10", http.StatusOK},
		{"/leaderboard/wizard", http.StatusBadRequest},
		{"/history/octocat", http.StatusOK},
		{"/cache/stats", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestParseLinkFlag(t *testing.T) {
	assert.Equal(t, types.ContextLinkInput{Label: "blog", URL: "https://octo.dev"}, parseLinkFlag("blog=https://octo.dev"))
	assert.Equal(t, types.ContextLinkInput{URL: "https://octo.dev/?a=b"}, parseLinkFlag("https://octo.dev/?a=b"))
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	result := types.AnalysisResult{
		Profile: types.Profile{Login: "octocat"},
		Role:    types.RoleSelection{Label: "Developer"},
		Evidence: types.Evidence{Repos: []types.SelectedRepoEvidence{{
			Repo:           types.RepoSummary{Name: "hello-world", Language: "Go"},
			SelectionScore: 61,
			Scores:         types.ScoreSet{Overall: 74},
		}}},
		Report: types.Report{
			Scores:         types.ProfileScores{ScoreSet: types.ScoreSet{Overall: 74}},
			Recommendation: types.Recommendation{Decision: "Interview"},
		},
		Diagnostics: types.Diagnostics{AIFallbackUsed: true, AIMessage: "fallback used"},
	}

	require.NoError(t, writeSummary(&buf, result))

	out := buf.String()
	assert.Contains(t, out, "octocat (Developer) - Interview")
	assert.Contains(t, out, "hello-world")
	assert.Contains(t, out, "fallback used")
}
