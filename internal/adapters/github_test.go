package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/hirescope/internal/cache"
	apperrors "github.com/ZanzyTHEbar/hirescope/internal/errors"
	"github.com/ZanzyTHEbar/hirescope/internal/monitoring"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) (*GitHubClient, *monitoring.Metrics) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	metrics := monitoring.NewMetrics()
	client := NewGitHubClient(GitHubOptions{
		BaseURL:           server.URL,
		Token:             token,
		RequestsPerSecond: 1000,
		Burst:             100,
		RetryMax:          0,
		Cache:             cache.New[[]byte]("github-api", time.Minute),
		Metrics:           metrics,
	})
	return client, metrics
}

func TestCountCommits(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		link     string
		body     string
		expected int
	}{
		{
			name:     "last page indicator is the total",
			status:   http.StatusOK,
			link:     `<https://api.github.com/repos/o/r/commits?per_page=1&page=2>; rel="next", <https://api.github.com/repos/o/r/commits?per_page=1&page=7>; rel="last"`,
			body:     `[{"sha":"a"}]`,
			expected: 7,
		},
		{
			name:     "no pagination uses literal item count",
			status:   http.StatusOK,
			body:     `[{"sha":"a"}]`,
			expected: 1,
		},
		{
			name:     "empty listing",
			status:   http.StatusOK,
			body:     `[]`,
			expected: 0,
		},
		{
			name:     "missing repository counts zero",
			status:   http.StatusNotFound,
			body:     `{"message":"Not Found"}`,
			expected: 0,
		},
		{
			name:     "empty repository counts zero",
			status:   http.StatusConflict,
			body:     `{"message":"Git Repository is empty."}`,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/octocat/hello/commits", r.URL.Path)
				assert.Equal(t, "1", r.URL.Query().Get("per_page"))
				assert.Equal(t, "main", r.URL.Query().Get("sha"))
				if tt.link != "" {
					w.Header().Set("Link", tt.link)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, "")

			got, err := client.CountCommits(context.Background(), "octocat", "hello", "main", time.Time{})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCountCommitsSinceFilter(t *testing.T) {
	since := time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-03-03T12:00:00Z", r.URL.Query().Get("since"))
		_, _ = w.Write([]byte(`[]`))
	}, "")

	_, err := client.CountCommits(context.Background(), "octocat", "hello", "main", since)
	require.NoError(t, err)
}

func TestCountCommitsErrorNamesRepository(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"Validation Failed"}`))
	}, "")

	_, err := client.CountCommits(context.Background(), "octocat", "hello", "", time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GitHub request failed (422): Validation Failed for octocat/hello")
}

func TestRateLimitError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Reset", "1714559400")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"API rate limit exceeded for 1.2.3.4."}`))
	}

	t.Run("unauthenticated", func(t *testing.T) {
		client, _ := newTestClient(t, handler, "")
		_, err := client.FetchUser(context.Background(), "octocat")
		require.Error(t, err)

		appErr := apperrors.ToAppError(err)
		assert.True(t, apperrors.IsRateLimit(err))
		assert.Equal(t, http.StatusTooManyRequests, appErr.HTTPStatus)
		assert.Contains(t, appErr.Message(), "resets around 2024-05-01T10:30:00Z")
		assert.Contains(t, appErr.Message(), "Add GITHUB_TOKEN")
	})

	t.Run("authenticated", func(t *testing.T) {
		client, _ := newTestClient(t, handler, "ghp_test")
		_, err := client.FetchUser(context.Background(), "octocat")
		require.Error(t, err)
		assert.Contains(t, apperrors.ToAppError(err).Message(), "GitHub token quota is exhausted.")
	})
}

func TestForbiddenWithoutQuotaMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("plain text denial"))
	}, "")

	_, err := client.FetchUser(context.Background(), "octocat")
	require.Error(t, err)
	assert.False(t, apperrors.IsRateLimit(err))
	assert.Contains(t, err.Error(), "GitHub request failed (403): plain text denial")
}

func TestFetchUser(t *testing.T) {
	var calls atomic.Int32
	client, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/users/octocat", r.URL.Path)
		assert.Equal(t, acceptJSON, r.Header.Get("Accept"))
		assert.Equal(t, "HireScope-App", r.Header.Get("User-Agent"))
		assert.Equal(t, apiVersion, r.Header.Get("X-GitHub-Api-Version"))
		assert.Equal(t, "Bearer ghp_test", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"login":"octocat","name":"The Octocat","bio":null,"public_repos":8,"followers":100,"created_at":"2011-01-25T18:44:36Z"}`))
	}, "ghp_test")

	profile, err := client.FetchUser(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, "octocat", profile.Login)
	assert.Equal(t, "The Octocat", profile.Name)
	assert.Equal(t, "", profile.Bio)
	assert.Equal(t, 8, profile.PublicRepos)

	_, err = client.FetchUser(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second fetch is served from the cache")
	assert.Equal(t, int64(1), metrics.CacheHits)
	assert.Equal(t, int64(1), metrics.GitHubAPICalls)
}

func TestFetchUserNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	}, "")

	_, err := client.FetchUser(context.Background(), "ghost-account")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, http.StatusNotFound, apperrors.ToAppError(err).HTTPStatus)
}

func TestListRepos(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octocat/repos", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))
		_, _ = w.Write([]byte(`[
			{"name":"hello","owner":{"login":"octocat"},"language":"Go","size":120,"stargazers_count":3,"default_branch":"main","pushed_at":"2024-05-01T00:00:00Z","description":null},
			{"name":"fork","owner":{"login":"octocat"},"fork":true,"size":10,"pushed_at":null}
		]`))
	}, "")

	repos, err := client.ListRepos(context.Background(), "octocat")
	require.NoError(t, err)
	require.Len(t, repos, 2)

	assert.Equal(t, "octocat", repos[0].Owner)
	assert.Equal(t, "Go", repos[0].Language)
	assert.Equal(t, 120, repos[0].Size)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), repos[0].PushedAt.UTC())
	assert.True(t, repos[1].Fork)
	assert.True(t, repos[1].PushedAt.IsZero())
}

func TestFetchReadme(t *testing.T) {
	t.Run("raw text truncated", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, acceptRaw, r.Header.Get("Accept"))
			_, _ = w.Write([]byte(strings.Repeat("x", 13000)))
		}, "")

		text, found, err := client.FetchReadme(context.Background(), "octocat", "hello")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Len(t, text, 12000)
	})

	t.Run("missing readme", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}, "")

		text, found, err := client.FetchReadme(context.Background(), "octocat", "hello")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, text)
	})
}

func TestServerErrorsOpenBreaker(t *testing.T) {
	var calls atomic.Int32
	client, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, "")

	for i := 0; i < 5; i++ {
		_, err := client.FetchUser(context.Background(), "octocat")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GitHub request failed (502)")
	}

	_, err := client.FetchUser(context.Background(), "octocat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temporarily unavailable")
	assert.Equal(t, int32(5), calls.Load())
	assert.Equal(t, int64(1), metrics.CircuitBreakerOpens)
	assert.Equal(t, "open", client.BreakerStats()["state"])
}

func TestParseLastPage(t *testing.T) {
	n, ok := ParseLastPage(`<https://x/commits?per_page=1&page=42>; rel="last"`)
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = ParseLastPage(`<https://x/commits?page=2>; rel="next"`)
	assert.False(t, ok)

	_, ok = ParseLastPage("")
	assert.False(t, ok)
}

func TestGitHubErrorMessage(t *testing.T) {
	assert.Equal(t, "Bad credentials", githubErrorMessage([]byte(`{"message":"  Bad credentials "}`)))
	assert.Equal(t, `{"error":"x"}`, githubErrorMessage([]byte(`{"error":"x"}`)))
	assert.Len(t, githubErrorMessage([]byte(strings.Repeat("e", 500))), maxErrorMessageChars)
	assert.Empty(t, githubErrorMessage(nil))
}
