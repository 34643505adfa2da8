package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/ZanzyTHEbar/hirescope/internal/cache"
	apperrors "github.com/ZanzyTHEbar/hirescope/internal/errors"
	"github.com/ZanzyTHEbar/hirescope/internal/monitoring"
	"github.com/ZanzyTHEbar/hirescope/internal/resilience"
	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

const (
	acceptJSON = "application/vnd.github+json"
	acceptRaw  = "application/vnd.github.raw+json"
	apiVersion = "2022-11-28"

	maxErrorMessageChars = 320
)

var (
	rateLimitMessage = regexp.MustCompile(`(?i)rate limit exceeded|secondary rate limit`)
	lastPageLink     = regexp.MustCompile(`[?&]page=(\d+)>; rel="last"`)

	errServerStatus = errors.New("github server error")
)

// githubUser is the wire shape of GET /users/{login}
type githubUser struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	Bio         string    `json:"bio"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Blog        string    `json:"blog"`
	AvatarURL   string    `json:"avatar_url"`
	HTMLURL     string    `json:"html_url"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
}

// githubRepo is the wire shape of one entry of GET /users/{login}/repos
type githubRepo struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Owner    struct {
		Login string `json:"login"`
	} `json:"owner"`
	HTMLURL         string    `json:"html_url"`
	CloneURL        string    `json:"clone_url"`
	Description     string    `json:"description"`
	Language        string    `json:"language"`
	DefaultBranch   string    `json:"default_branch"`
	Size            int       `json:"size"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	OpenIssuesCount int       `json:"open_issues_count"`
	Fork            bool      `json:"fork"`
	Archived        bool      `json:"archived"`
	HasIssues       bool      `json:"has_issues"`
	HasWiki         bool      `json:"has_wiki"`
	PushedAt        time.Time `json:"pushed_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// GitHubOptions configures a GitHubClient
type GitHubOptions struct {
	BaseURL           string
	Token             string
	UserAgent         string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	RetryMax          int
	RetryWaitMin      time.Duration
	ReadmeMaxChars    int

	// Cache holds successful GET bodies; nil disables caching
	Cache   *cache.Cache[[]byte]
	Metrics *monitoring.Metrics
	Logger  *monitoring.Logger
}

// GitHubClient reads account, repository and commit data from the GitHub REST API
type GitHubClient struct {
	baseURL   string
	token     string
	userAgent string
	readmeMax int

	http    *retryablehttp.Client
	pacer   *rate.Limiter
	breaker *resilience.CircuitBreaker
	cache   *cache.Cache[[]byte]
	metrics *monitoring.Metrics
	logger  *monitoring.Logger
}

// response is a fully read upstream response
type response struct {
	status int
	header http.Header
	body   []byte
}

// NewGitHubClient creates a client with pacing, retries and a circuit breaker
func NewGitHubClient(opts GitHubOptions) *GitHubClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.github.com"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "HireScope-App"
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 10
	}
	if opts.Burst <= 0 {
		opts.Burst = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.ReadmeMaxChars <= 0 {
		opts.ReadmeMaxChars = 12000
	}
	if opts.Logger == nil {
		opts.Logger = monitoring.NewLoggerTo(io.Discard, 0)
	}

	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		client.RetryWaitMin = opts.RetryWaitMin
		client.RetryWaitMax = 8 * opts.RetryWaitMin
	}
	client.HTTPClient.Timeout = opts.Timeout
	client.CheckRetry = retryPolicy
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	metrics := opts.Metrics
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:             "github",
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 1,
		OnStateChange:    breakerStateHook(opts.Logger, metrics),
	})

	return &GitHubClient{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		token:     opts.Token,
		userAgent: opts.UserAgent,
		readmeMax: opts.ReadmeMaxChars,
		http:      client,
		pacer:     rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		breaker:   breaker,
		cache:     opts.Cache,
		metrics:   metrics,
		logger:    opts.Logger,
	}
}

// breakerStateHook logs breaker transitions and counts opens and closes
func breakerStateHook(logger *monitoring.Logger, metrics *monitoring.Metrics) func(string, resilience.CircuitBreakerState, resilience.CircuitBreakerState) {
	return func(name string, from, to resilience.CircuitBreakerState) {
		logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		if metrics == nil {
			return
		}
		switch to {
		case resilience.StateOpen:
			metrics.IncrementCircuitBreakerOpen()
		case resilience.StateClosed:
			metrics.IncrementCircuitBreakerClose()
		}
	}
}

// retryPolicy never retries quota responses; those surface to the caller
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if resp != nil && (resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests) {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// Authenticated reports whether requests carry a token
func (g *GitHubClient) Authenticated() bool {
	return g.token != ""
}

// BreakerStats exposes the circuit breaker for the metrics endpoint
func (g *GitHubClient) BreakerStats() map[string]interface{} {
	return g.breaker.Stats()
}

// FetchUser returns the public profile of login
func (g *GitHubClient) FetchUser(ctx context.Context, login string) (types.Profile, error) {
	endpoint := g.baseURL + "/users/" + url.PathEscape(login)

	body, _, err := g.get(ctx, endpoint, acceptJSON, false)
	if err != nil {
		return types.Profile{}, err
	}

	var u githubUser
	if err := json.Unmarshal(body, &u); err != nil {
		return types.Profile{}, apperrors.NewExternalAPIError("github", "GitHub returned an unreadable user record", err)
	}
	return types.Profile{
		Login:       u.Login,
		Name:        u.Name,
		Bio:         u.Bio,
		Company:     u.Company,
		Location:    u.Location,
		Blog:        u.Blog,
		AvatarURL:   u.AvatarURL,
		HTMLURL:     u.HTMLURL,
		PublicRepos: u.PublicRepos,
		Followers:   u.Followers,
		Following:   u.Following,
		CreatedAt:   u.CreatedAt,
	}, nil
}

// ListRepos returns up to 100 of the account's repositories, most recently updated first
func (g *GitHubClient) ListRepos(ctx context.Context, login string) ([]types.RepoCandidate, error) {
	endpoint := g.baseURL + "/users/" + url.PathEscape(login) + "/repos?per_page=100&sort=updated"

	body, _, err := g.get(ctx, endpoint, acceptJSON, false)
	if err != nil {
		return nil, err
	}

	var wire []githubRepo
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, apperrors.NewExternalAPIError("github", "GitHub returned an unreadable repository list", err)
	}

	repos := make([]types.RepoCandidate, len(wire))
	for i, r := range wire {
		owner := r.Owner.Login
		if owner == "" {
			owner = login
		}
		repos[i] = types.RepoCandidate{
			Name:            r.Name,
			FullName:        r.FullName,
			Owner:           owner,
			HTMLURL:         r.HTMLURL,
			CloneURL:        r.CloneURL,
			Description:     r.Description,
			Language:        r.Language,
			DefaultBranch:   r.DefaultBranch,
			Size:            r.Size,
			StargazersCount: r.StargazersCount,
			ForksCount:      r.ForksCount,
			OpenIssuesCount: r.OpenIssuesCount,
			Fork:            r.Fork,
			Archived:        r.Archived,
			HasIssues:       r.HasIssues,
			HasWiki:         r.HasWiki,
			PushedAt:        r.PushedAt,
			UpdatedAt:       r.UpdatedAt,
		}
	}
	return repos, nil
}

// FetchReadme returns the raw README text, truncated to the configured length.
// A repository without a README returns "" and false.
func (g *GitHubClient) FetchReadme(ctx context.Context, owner, repo string) (string, bool, error) {
	endpoint := g.baseURL + "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) + "/readme"

	body, found, err := g.get(ctx, endpoint, acceptRaw, true)
	if err != nil || !found {
		return "", false, err
	}

	text := []rune(string(body))
	if len(text) > g.readmeMax {
		text = text[:g.readmeMax]
	}
	return string(text), len(text) > 0, nil
}

// CountCommits estimates matching commits with a one-item page: the last page
// number in the Link header is the total. Without pagination the literal item
// count is used. Missing (404) and empty (409) repositories count zero.
func (g *GitHubClient) CountCommits(ctx context.Context, owner, repo, branch string, since time.Time) (int, error) {
	q := url.Values{}
	q.Set("per_page", "1")
	if branch != "" {
		q.Set("sha", branch)
	}
	if !since.IsZero() {
		q.Set("since", since.UTC().Format(time.RFC3339))
	}
	endpoint := g.baseURL + "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) + "/commits?" + q.Encode()

	resp, err := g.do(ctx, endpoint, acceptJSON)
	if err != nil {
		return 0, err
	}

	switch {
	case resp.status == http.StatusNotFound || resp.status == http.StatusConflict:
		return 0, nil
	case resp.status < 200 || resp.status > 299:
		return 0, g.statusError(resp, owner+"/"+repo)
	}

	if last, ok := ParseLastPage(resp.header.Get("Link")); ok {
		return last, nil
	}
	count := gjson.GetBytes(resp.body, "#")
	if !gjson.ValidBytes(resp.body) || !count.Exists() {
		return 0, nil
	}
	return int(count.Int()), nil
}

// ParseLastPage extracts the rel="last" page number from a Link header
func ParseLastPage(link string) (int, bool) {
	m := lastPageLink.FindStringSubmatch(link)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// get performs a cached GET. With allow404 a 404 returns found=false and no error.
func (g *GitHubClient) get(ctx context.Context, endpoint, accept string, allow404 bool) ([]byte, bool, error) {
	responseType := "json"
	if accept == acceptRaw {
		responseType = "text"
	}
	key := accept + "|" + responseType + "|" + endpoint

	if g.cache != nil {
		if body, ok := g.cache.Get(key); ok {
			if g.metrics != nil {
				g.metrics.IncrementCacheHit()
			}
			g.logger.CacheLogger(g.cache.Name(), key, true, g.cache.Size())
			return body, true, nil
		}
		if g.metrics != nil {
			g.metrics.IncrementCacheMiss()
		}
	}

	resp, err := g.do(ctx, endpoint, accept)
	if err != nil {
		return nil, false, err
	}
	if allow404 && resp.status == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.status < 200 || resp.status > 299 {
		return nil, false, g.statusError(resp, "")
	}

	if g.cache != nil {
		g.cache.Set(key, resp.body)
	}
	return resp.body, true, nil
}

// do sends one paced GET through the breaker and reads the whole body
func (g *GitHubClient) do(ctx context.Context, endpoint, accept string) (*response, error) {
	if err := g.pacer.Wait(ctx); err != nil {
		return nil, apperrors.NewTimeoutError("GitHub request cancelled while waiting for the pacer", err)
	}

	start := time.Now()
	var resp *response
	err := g.breaker.Call(func() error {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", accept)
		req.Header.Set("User-Agent", g.userAgent)
		req.Header.Set("X-GitHub-Api-Version", apiVersion)
		if g.token != "" {
			req.Header.Set("Authorization", "Bearer "+g.token)
		}

		httpResp, err := g.http.Do(req)
		if err != nil {
			return err
		}
		defer apperrors.SafeClose(httpResp.Body, "github response body")

		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return err
		}
		resp = &response{status: httpResp.StatusCode, header: httpResp.Header, body: body}
		if httpResp.StatusCode >= 500 {
			return errServerStatus
		}
		return nil
	})

	duration := time.Since(start)
	status := 0
	if resp != nil {
		status = resp.status
	}
	success := err == nil && status < 400
	if g.metrics != nil {
		g.metrics.IncrementGitHubCalls()
		g.metrics.RecordExternalAPIRequest("github", success)
	}
	g.logger.ExternalAPILogger("github", http.MethodGet, endpoint, status, duration, success)

	switch {
	case errors.Is(err, errServerStatus):
		return resp, nil
	case errors.Is(err, resilience.ErrOpen):
		return nil, apperrors.NewExternalAPIError("github", "GitHub API is temporarily unavailable; retry shortly.", err)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return nil, apperrors.NewTimeoutError("GitHub request timed out", err)
	case err != nil:
		return nil, apperrors.NewNetworkError("GitHub API is unreachable", err)
	}
	return resp, nil
}

// statusError converts a non-2xx response into the service error taxonomy
func (g *GitHubClient) statusError(resp *response, subject string) error {
	message := githubErrorMessage(resp.body)

	if (resp.status == http.StatusForbidden || resp.status == http.StatusTooManyRequests) && rateLimitMessage.MatchString(message) {
		var resetAt time.Time
		if epoch, err := strconv.ParseInt(resp.header.Get("X-RateLimit-Reset"), 10, 64); err == nil && epoch > 0 {
			resetAt = time.Unix(epoch, 0).UTC()
		}
		return apperrors.NewGitHubRateLimitError(resetAt, g.Authenticated())
	}

	text := fmt.Sprintf("GitHub request failed (%d)", resp.status)
	if message != "" {
		text += ": " + message
	}
	if subject != "" {
		text += " for " + subject
	}

	if resp.status == http.StatusNotFound {
		return apperrors.NewNotFoundError(text)
	}
	return apperrors.NewExternalAPIError("github", text, nil)
}

// githubErrorMessage prefers the JSON message field and falls back to the raw body
func githubErrorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		if m := gjson.GetBytes(body, "message"); m.Type == gjson.String {
			return strings.TrimSpace(m.Str)
		}
	}
	raw := []rune(strings.TrimSpace(string(body)))
	if len(raw) > maxErrorMessageChars {
		raw = raw[:maxErrorMessageChars]
	}
	return string(raw)
}
