package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	apperrors "github.com/ZanzyTHEbar/hirescope/internal/errors"
	"github.com/ZanzyTHEbar/hirescope/internal/monitoring"
	"github.com/ZanzyTHEbar/hirescope/internal/report"
	"github.com/ZanzyTHEbar/hirescope/internal/resilience"
	"github.com/ZanzyTHEbar/hirescope/internal/types"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.5-flash-lite"
	geminiTemperature    = 0.2
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

// GeminiOptions configures a GeminiClient
type GeminiOptions struct {
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
	RetryMax int
	Metrics  *monitoring.Metrics
	Logger   *monitoring.Logger
}

// GeminiClient is a report.Synthesizer backed by the generateContent endpoint
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	http    *retryablehttp.Client
	breaker *resilience.CircuitBreaker
	metrics *monitoring.Metrics
	logger  *monitoring.Logger
}

// NewGeminiClient creates a client; an empty APIKey is allowed but every call fails
func NewGeminiClient(opts GeminiOptions) *GeminiClient {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultGeminiBaseURL
	}
	if opts.Model == "" {
		opts.Model = defaultGeminiModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = monitoring.NewLoggerTo(io.Discard, 0)
	}

	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = opts.RetryMax
	client.HTTPClient.Timeout = opts.Timeout
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &GeminiClient{
		apiKey:  opts.APIKey,
		model:   opts.Model,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    client,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:             "gemini",
			FailureThreshold: 3,
			RecoveryTimeout:  60 * time.Second,
			SuccessThreshold: 1,
			OnStateChange:    breakerStateHook(opts.Logger, opts.Metrics),
		}),
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
}

var _ report.Synthesizer = (*GeminiClient)(nil)

// Synthesize sends the prompt and decodes the first JSON object of the reply
func (g *GeminiClient) Synthesize(ctx context.Context, prompt string) (types.Draft, error) {
	if g.apiKey == "" {
		return types.Draft{}, apperrors.NewConfigurationError("GEMINI_API_KEY is missing", nil)
	}

	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      geminiTemperature,
			ResponseMimeType: "application/json",
		},
	})
	if err != nil {
		return types.Draft{}, apperrors.NewInternalError("encode gemini request", err)
	}

	endpoint := g.baseURL + "/models/" + url.PathEscape(g.model) + ":generateContent"
	start := time.Now()
	var status int
	var body []byte
	err = g.breaker.Call(func() error {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", g.apiKey)

		resp, err := g.http.Do(req)
		if err != nil {
			return err
		}
		defer apperrors.SafeClose(resp.Body, "gemini response body")

		status = resp.StatusCode
		if body, err = io.ReadAll(resp.Body); err != nil {
			return err
		}
		if status >= 500 {
			return errServerStatus
		}
		return nil
	})

	success := err == nil && status >= 200 && status <= 299
	if g.metrics != nil {
		g.metrics.RecordExternalAPIRequest("gemini", success)
	}
	g.logger.ExternalAPILogger("gemini", http.MethodPost, endpoint, status, time.Since(start), success)

	switch {
	case err != nil && !errors.Is(err, errServerStatus):
		if errors.Is(err, resilience.ErrOpen) {
			return types.Draft{}, apperrors.NewExternalAPIError("gemini", "Gemini API is temporarily unavailable.", err)
		}
		return types.Draft{}, apperrors.NewExternalAPIError("gemini", "Gemini API request failed: "+err.Error(), err)
	case status < 200 || status > 299:
		return types.Draft{}, apperrors.NewExternalAPIError("gemini",
			fmt.Sprintf("Gemini API request failed (%d): %s", status, truncateMessage(strings.TrimSpace(string(body)))), nil)
	}

	var text strings.Builder
	for _, part := range gjson.GetBytes(body, "candidates.0.content.parts").Array() {
		text.WriteString(part.Get("text").String())
	}
	if text.Len() == 0 {
		return types.Draft{}, apperrors.NewExternalAPIError("gemini", "Gemini returned an empty response.", nil)
	}

	raw, ok := report.ExtractFirstJSON(text.String())
	if !ok {
		return types.Draft{}, apperrors.NewExternalAPIError("gemini", "Gemini response could not be parsed as JSON.", nil)
	}
	return report.DecodeDraft(raw), nil
}

func truncateMessage(s string) string {
	r := []rune(s)
	if len(r) > maxErrorMessageChars {
		return string(r[:maxErrorMessageChars])
	}
	return s
}
