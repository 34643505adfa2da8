package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsSetCategoryAndStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		category ErrorCategory
		status   int
		prefix   string
	}{
		{"validation", NewValidationError("bad username"), CategoryValidation, http.StatusBadRequest, "[VALIDATION_ERROR]"},
		{"not found", NewNotFoundError("GitHub user not found"), CategoryNotFound, http.StatusNotFound, "[NOT_FOUND]"},
		{"network", NewNetworkError("dial failed", errors.New("refused")), CategoryNetwork, http.StatusBadGateway, "[UPSTREAM_ERROR]"},
		{"timeout", NewTimeoutError("slow", nil), CategoryTimeout, http.StatusGatewayTimeout, "[TIMEOUT_ERROR]"},
		{"rate limit", NewRateLimitError("slow down", "60"), CategoryRateLimit, http.StatusTooManyRequests, "[RATE_LIMIT_EXCEEDED]"},
		{"external", NewExternalAPIError("GitHub", "GitHub request failed (500): boom", nil), CategoryExternalAPI, http.StatusBadGateway, "[UPSTREAM_ERROR]"},
		{"internal", NewInternalError("oops", nil), CategoryInternal, http.StatusInternalServerError, "[INTERNAL_ERROR]"},
		{"config", NewConfigurationError("missing", nil), CategoryConfiguration, http.StatusInternalServerError, "[CONFIGURATION_ERROR]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Contains(t, tt.err.Error(), tt.prefix)
		})
	}
}

func TestGitHubRateLimitError(t *testing.T) {
	reset := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	unauth := NewGitHubRateLimitError(reset, false)
	assert.Equal(t, http.StatusTooManyRequests, unauth.HTTPStatus)
	assert.Contains(t, unauth.Message(), "resets around 2024-05-01T10:30:00Z")
	assert.Contains(t, unauth.Message(), "GITHUB_TOKEN")
	hint, ok := unauth.Hint("reset_at")
	require.True(t, ok)
	assert.Equal(t, "2024-05-01T10:30:00Z", hint)
	assert.True(t, IsRateLimit(unauth))

	auth := NewGitHubRateLimitError(time.Time{}, true)
	assert.NotContains(t, auth.Message(), "resets around")
	assert.Equal(t, "GitHub API rate limit exceeded. GitHub token quota is exhausted.", auth.Message())
	_, ok = auth.Hint("reset_at")
	assert.False(t, ok)
}

func TestToAppError(t *testing.T) {
	assert.Nil(t, ToAppError(nil))

	original := NewNotFoundError("missing")
	wrapped := fmt.Errorf("fetch user: %w", original)
	assert.Same(t, original, ToAppError(wrapped))
	assert.True(t, IsNotFound(wrapped))

	assert.Equal(t, CategoryTimeout, ToAppError(context.DeadlineExceeded).Category)
	assert.Equal(t, CategoryNetwork, ToAppError(errors.New("dial tcp: connection refused")).Category)
	assert.Equal(t, CategoryInternal, ToAppError(errors.New("something else")).Category)
}

func TestErrorHandlerWritesJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(NewGitHubRateLimitError(time.Unix(1714559400, 0), false))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "GitHub API rate limit exceeded")
	assert.Equal(t, "rate_limit", body["category"])
	assert.NotEmpty(t, body["reset_at"])
}

func TestRecoveryHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RecoveryHandler())
	router.GET("/panic", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
}

func TestResultCollapse(t *testing.T) {
	ok := Try(func() (int, error) { return 7, nil })
	assert.True(t, ok.OK())
	assert.Equal(t, 7, Collapse(ok, 0))

	var seen error
	failed := Try(func() (int, error) { return 0, errors.New("probe failed") })
	assert.False(t, failed.OK())
	assert.Equal(t, -1, Collapse(failed, -1, func(err error) { seen = err }))
	assert.EqualError(t, seen, "probe failed")

	assert.Equal(t, "x", Collapse(Ok("x"), "fallback"))
	assert.Equal(t, "fallback", Collapse(Fail[string](errors.New("no")), "fallback"))
}
