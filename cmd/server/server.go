package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ZanzyTHEbar/hirescope/docs"
	apperrors "github.com/ZanzyTHEbar/hirescope/internal/errors"
	"github.com/ZanzyTHEbar/hirescope/internal/leaderboard"
	"github.com/ZanzyTHEbar/hirescope/internal/middleware"
	"github.com/ZanzyTHEbar/hirescope/internal/monitoring"
	"github.com/ZanzyTHEbar/hirescope/internal/ratelimit"
	"github.com/ZanzyTHEbar/hirescope/internal/security"
	"github.com/ZanzyTHEbar/hirescope/internal/service"
	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

const (
	msgInvalidJSON   = "Request body must be valid JSON."
	msgInvalidInput  = "Please provide a valid GitHub username or profile URL."
	msgBodyTooLarge  = "Request body is too large."
	msgRouteNotFound = "Route not found"
)

// Analyzer runs one analyze request
type Analyzer interface {
	Analyze(ctx context.Context, req types.AnalyzeRequest) (types.AnalysisResult, error)
}

// Boards serves the persisted history views
type Boards interface {
	GetLeaderboard(ctx context.Context, role string, limit int) (*leaderboard.Response, error)
	History(ctx context.Context, username string, limit int) (*leaderboard.HistoryResponse, error)
	GetStats() map[string]interface{}
}

// server holds the HTTP handlers and what they read
type server struct {
	analyzer    Analyzer
	boards      Boards
	caches      *service.Caches
	limiter     *ratelimit.RateLimiter
	security    *security.Middleware
	compression *middleware.CompressionMiddleware
	metrics     *monitoring.Metrics
	logger      *monitoring.Logger
	githubAuth  string
	version     string

	// extraStats are merged into /metrics by key
	extraStats map[string]func() map[string]interface{}
}

func (s *server) routes() *gin.Engine {
	r := gin.New()

	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(apperrors.ErrorHandler())
	r.Use(apperrors.RecoveryHandler())
	r.Use(s.security.CORS())
	r.Use(s.security.SecurityHeaders)
	r.Use(s.compression.Handler())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": msgRouteNotFound})
	})

	r.GET("/health", s.health)
	r.GET("/metrics", s.metricsStats)
	r.GET("/cache/stats", s.cacheStats)
	r.GET("/leaderboard/:role", s.leaderboard)
	r.GET("/history/:username", s.history)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api", s.security.RequestTimeout, s.security.LimitBody, s.security.ValidateContentType)
	api.POST("/analyze", s.limiter.AnalyzeRateLimitMiddleware(), s.analyze)

	return r
}

// analyze godoc
// @Summary      Analyze a GitHub account
// @Description  Samples representative repositories, scores them for the requested role and returns a hiring report.
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Param        request  body      types.AnalyzeRequest  true  "Account, role and optional context"
// @Success      200      {object}  types.AnalysisResult
// @Failure      400      {object}  types.ErrorResponse
// @Failure      404      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      502      {object}  types.ErrorResponse
// @Router       /api/analyze [post]
func (s *server) analyze(c *gin.Context) {
	var req types.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgBodyTooLarge})
			return
		}
		_ = c.Error(bindError(err))
		return
	}

	result, err := s.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func bindError(err error) *apperrors.AppError {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return apperrors.NewValidationError(msgInvalidJSON)
	}
	return apperrors.NewValidationError(msgInvalidInput)
}

// health godoc
// @Summary   Liveness and GitHub token source
// @Tags      operations
// @Produce   json
// @Success   200  {object}  types.HealthResponse
// @Router    /health [get]
func (s *server) health(c *gin.Context) {
	c.JSON(http.StatusOK, types.HealthResponse{
		OK:         true,
		GitHubAuth: s.githubAuth,
		Version:    s.version,
	})
}

// metricsStats godoc
// @Summary   Process counters
// @Tags      operations
// @Produce   json
// @Success   200  {object}  map[string]interface{}
// @Router    /metrics [get]
func (s *server) metricsStats(c *gin.Context) {
	stats := s.metrics.GetStats()
	stats["rate_limit"] = s.limiter.GetStats()
	stats["compression"] = s.compression.GetStats()
	for key, fn := range s.extraStats {
		stats[key] = fn()
	}
	c.JSON(http.StatusOK, stats)
}

// cacheStats godoc
// @Summary   Per-cache sizes and lifetimes
// @Tags      operations
// @Produce   json
// @Success   200  {object}  map[string]interface{}
// @Router    /cache/stats [get]
func (s *server) cacheStats(c *gin.Context) {
	stats := s.caches.Stats()
	stats["leaderboard_views"] = s.boards.GetStats()
	c.JSON(http.StatusOK, stats)
}

// leaderboard godoc
// @Summary   Top accounts for a role
// @Tags      history
// @Produce   json
// @Param     role   path   string  true   "recruiter, developer or other"
// @Param     limit  query  int     false  "page size, at most 100"
// @Success   200    {object}  leaderboard.Response
// @Failure   400    {object}  types.ErrorResponse
// @Router    /leaderboard/{role} [get]
func (s *server) leaderboard(c *gin.Context) {
	board, err := s.boards.GetLeaderboard(c.Request.Context(), c.Param("role"), queryLimit(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// history godoc
// @Summary   Recent analyses of an account
// @Tags      history
// @Produce   json
// @Param     username  path   string  true   "GitHub login"
// @Param     limit     query  int     false  "page size, at most 100"
// @Success   200       {object}  leaderboard.HistoryResponse
// @Failure   400       {object}  types.ErrorResponse
// @Router    /history/{username} [get]
func (s *server) history(c *gin.Context) {
	h, err := s.boards.History(c.Request.Context(), c.Param("username"), queryLimit(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, h)
}

// queryLimit reads ?limit; anything unparsable means the default page
func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return limit
}
