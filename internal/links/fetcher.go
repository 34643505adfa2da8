package links

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"syscall"
	"time"

	"github.com/ZanzyTHEbar/hirescope/internal/bounded"
	"github.com/ZanzyTHEbar/hirescope/internal/cache"
	apperrors "github.com/ZanzyTHEbar/hirescope/internal/errors"
	"github.com/ZanzyTHEbar/hirescope/internal/monitoring"
	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

const (
	acceptMarkup = "text/html,application/xhtml+xml,application/xml;q=0.9,text/plain;q=0.8,*/*;q=0.5"
	maxBodyBytes = 2 << 20

	noteLinkedIn     = "LinkedIn pages are usually auth-gated and block automated fetches; recommendation uses GitHub evidence with limited external context."
	noteRestricted   = "Page responded but public content is limited (likely auth-gated)."
	noteExtracted    = "Public metadata and text snippet extracted."
	noteTimeout      = "Timed out while fetching this link."
	noteUnreachable  = "Unable to fetch this link from the server."
	noteStatusFormat = "Could not access page content (status %d)."
)

var (
	authWall = regexp.MustCompile(`(?i)sign in|join linkedin|logged out|authentication required|challenge`)

	errBlockedAddress = errors.New("refusing to connect to a private address")
)

// FetcherOptions configures a Fetcher
type FetcherOptions struct {
	Timeout      time.Duration
	SnippetChars int
	Workers      int
	UserAgent    string

	// Cache stores every outcome, failures included, by URL
	Cache   *cache.Cache[types.ExternalContext]
	Metrics *monitoring.Metrics
	Logger  *monitoring.Logger

	// AllowPrivateNetworks disables the dial-time address guard
	AllowPrivateNetworks bool
}

// Fetcher resolves context links to ExternalContext records. It never fails:
// every problem becomes an unreachable record with a note.
type Fetcher struct {
	client       *http.Client
	timeout      time.Duration
	snippetChars int
	workers      int
	userAgent    string
	cache        *cache.Cache[types.ExternalContext]
	metrics      *monitoring.Metrics
	logger       *monitoring.Logger
}

// NewFetcher creates a fetcher
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 7 * time.Second
	}
	if opts.SnippetChars <= 0 {
		opts.SnippetChars = 320
	}
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "HireScope-App"
	}
	if opts.Logger == nil {
		opts.Logger = monitoring.NewLoggerTo(io.Discard, 0)
	}

	dialer := &net.Dialer{Timeout: opts.Timeout}
	if !opts.AllowPrivateNetworks {
		dialer.Control = func(_, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			if ip := net.ParseIP(host); ip != nil && blockedIP(ip) {
				return errBlockedAddress
			}
			return nil
		}
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	// Through a proxy the dialer only sees the proxy's address, so the guard
	// would never see the link's host.
	transport.Proxy = nil

	return &Fetcher{
		client:       &http.Client{Transport: transport},
		timeout:      opts.Timeout,
		snippetChars: opts.SnippetChars,
		workers:      opts.Workers,
		userAgent:    opts.UserAgent,
		cache:        opts.Cache,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
	}
}

func cacheKey(rawURL string) string {
	return "external-context|" + rawURL
}

// Resolve fetches every link with bounded concurrency, in input order. Link
// failures become unreachable records; only a cancelled ctx is returned.
func (f *Fetcher) Resolve(ctx context.Context, links []types.ContextLink) ([]types.ExternalContext, error) {
	if len(links) == 0 {
		return []types.ExternalContext{}, nil
	}
	out, err := bounded.Map(ctx, links, f.workers, func(ctx context.Context, _ int, link types.ContextLink) (types.ExternalContext, error) {
		return f.Fetch(ctx, link), nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Fetch resolves one link, consulting the cache first
func (f *Fetcher) Fetch(ctx context.Context, link types.ContextLink) types.ExternalContext {
	key := cacheKey(link.URL)
	if f.cache != nil {
		if cached, ok := f.cache.Get(key); ok {
			f.logger.CacheLogger(f.cache.Name(), key, true, f.cache.Size())
			return cached
		}
	}

	var result types.ExternalContext
	if IsLinkedIn(link.URL) {
		result = types.ExternalContext{
			Label:      link.Label,
			URL:        link.URL,
			FinalURL:   link.URL,
			Reachable:  true,
			Restricted: true,
			Note:       noteLinkedIn,
		}
	} else {
		r := apperrors.Try(func() (types.ExternalContext, error) {
			return f.fetch(ctx, link)
		})
		result = apperrors.Collapse(r, f.unreachable(link, r.Reason), func(err error) {
			f.logger.DegradeLogger("context-link", link.URL, err)
		})
		if f.metrics != nil {
			f.metrics.RecordLinkFetch(r.OK() && result.Reachable)
		}
		if ctx.Err() != nil {
			// the caller went away; this outcome says nothing about the link
			return result
		}
	}

	if f.cache != nil {
		f.cache.Set(key, result)
	}
	return result
}

func (f *Fetcher) fetch(ctx context.Context, link types.ContextLink) (types.ExternalContext, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link.URL, nil)
	if err != nil {
		return types.ExternalContext{}, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptMarkup)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return types.ExternalContext{}, err
	}
	defer apperrors.SafeClose(resp.Body, "context link body")

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return types.ExternalContext{}, err
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	f.logger.ExternalAPILogger("context-link", http.MethodGet, link.URL, resp.StatusCode, time.Since(start), ok)

	finalURL := link.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	extracted := Extract(string(raw), f.snippetChars)
	detection := extracted.Title + " " + extracted.Description + " " + extracted.Heading + " " + extracted.Snippet
	restricted := IsLinkedIn(finalURL) && authWall.MatchString(detection)

	note := fmt.Sprintf(noteStatusFormat, resp.StatusCode)
	switch {
	case ok && restricted:
		note = noteRestricted
	case ok:
		note = noteExtracted
	}

	return types.ExternalContext{
		Label:       link.Label,
		URL:         link.URL,
		FinalURL:    finalURL,
		Reachable:   ok,
		Restricted:  restricted,
		Status:      resp.StatusCode,
		Title:       extracted.Title,
		Description: extracted.Description,
		Heading:     extracted.Heading,
		Snippet:     extracted.Snippet,
		Note:        note,
	}, nil
}

func (f *Fetcher) unreachable(link types.ContextLink, err error) types.ExternalContext {
	note := noteUnreachable
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		note = noteTimeout
	}
	return types.ExternalContext{
		Label:    link.Label,
		URL:      link.URL,
		FinalURL: link.URL,
		Note:     note,
	}
}
