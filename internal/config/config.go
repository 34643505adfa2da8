// Package config resolves service settings from defaults, an optional YAML
// file, HIRESCOPE_* environment variables and the legacy unprefixed names.
package config

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// GitHubConfig controls the GitHub API client
type GitHubConfig struct {
	BaseURL           string        `mapstructure:"base-url"`
	Token             string        `mapstructure:"token"`
	TokenSource       string        `mapstructure:"-"`
	UserAgent         string        `mapstructure:"user-agent"`
	RequestsPerSecond float64       `mapstructure:"requests-per-second"`
	Burst             int           `mapstructure:"burst"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RetryMax          int           `mapstructure:"retry-max"`
	ReadmeMaxChars    int           `mapstructure:"readme-max-chars"`
}

// GeminiConfig controls the optional narrative synthesizer
type GeminiConfig struct {
	APIKey  string        `mapstructure:"api-key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base-url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RedisConfig enables the shared rate limiter store when Addr is set
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig holds the lifetime of each cache
type CacheConfig struct {
	APITTL         time.Duration `mapstructure:"api-ttl"`
	ProfileTTL     time.Duration `mapstructure:"profile-ttl"`
	ResultTTL      time.Duration `mapstructure:"result-ttl"`
	ExternalTTL    time.Duration `mapstructure:"external-ttl"`
	LeaderboardTTL time.Duration `mapstructure:"leaderboard-ttl"`
	SweepInterval  time.Duration `mapstructure:"sweep-interval"`
}

// RateLimitConfig is the fixed window applied to analyze requests
type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max-requests"`
	Window      time.Duration `mapstructure:"window"`
}

// SelectionConfig bounds repository selection
type SelectionConfig struct {
	MinSelected   int `mapstructure:"min-selected"`
	MaxSelected   int `mapstructure:"max-selected"`
	CandidateCap  int `mapstructure:"candidate-cap"`
	CommitWorkers int `mapstructure:"commit-workers"`
}

// InspectConfig bounds clone-and-scan work
type InspectConfig struct {
	ScanBudget     int           `mapstructure:"scan-budget"`
	TreePreview    int           `mapstructure:"tree-preview"`
	MaxDepth       int           `mapstructure:"max-depth"`
	CloneTimeout   time.Duration `mapstructure:"clone-timeout"`
	CloneMaxOutput int           `mapstructure:"clone-max-output"`
	MaxRepoSizeKB  int           `mapstructure:"max-repo-size-kb"`
	Workers        int           `mapstructure:"workers"`
}

// LinksConfig bounds context link fetching
type LinksConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	SnippetChars int           `mapstructure:"snippet-chars"`
	MaxLinks     int           `mapstructure:"max-links"`
	Workers      int           `mapstructure:"workers"`
}

// ServerConfig bounds the HTTP surface
type ServerConfig struct {
	RequestTimeout  time.Duration `mapstructure:"request-timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
	MaxBodyBytes    int64         `mapstructure:"max-body-bytes"`
	EnableHSTS      bool          `mapstructure:"enable-hsts"`
}

// Config is the resolved service configuration
type Config struct {
	Port        int             `mapstructure:"port"`
	DataDir     string          `mapstructure:"data-dir"`
	LogLevel    string          `mapstructure:"log-level"`
	CORSOrigins []string        `mapstructure:"cors-origins"`
	WarmCache   bool            `mapstructure:"warm-cache"`
	Server      ServerConfig    `mapstructure:"server"`
	GitHub      GitHubConfig    `mapstructure:"github"`
	Gemini      GeminiConfig    `mapstructure:"gemini"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Cache       CacheConfig     `mapstructure:"cache"`
	RateLimit   RateLimitConfig `mapstructure:"rate-limit"`
	Selection   SelectionConfig `mapstructure:"selection"`
	Inspect     InspectConfig   `mapstructure:"inspect"`
	Links       LinksConfig     `mapstructure:"links"`
}

// Token sources reported by /health
const (
	TokenSourceNone   = "none"
	TokenSourceConfig = "config"
	TokenSourceGHCLI  = "gh-auth-token"
)

// githubTokenEnv lists the environment names checked for a GitHub token, in order
var githubTokenEnv = []string{
	"HIRESCOPE_GITHUB_TOKEN",
	"GITHUB_TOKEN",
	"GH_TOKEN",
	"GITHUB_PAT",
	"GITHUB_API_KEY",
	"GITHUB_ACCESS_TOKEN",
}

// legacyEnv maps config keys to the unprefixed names older deployments use
var legacyEnv = map[string][]string{
	"port":               {"PORT"},
	"data-dir":           {"DATA_DIR"},
	"warm-cache":         {"WARM_CACHE"},
	"gemini.api-key":     {"GEMINI_API_KEY"},
	"gemini.model":       {"GEMINI_MODEL"},
	"redis.addr":         {"REDIS_ADDR"},
	"server.enable-hsts": {"ENABLE_HSTS"},
}

// New returns a viper instance with defaults and environment bindings applied
func New() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix("HIRESCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	for key, names := range legacyEnv {
		prefixed := "HIRESCOPE_" + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
		_ = v.BindEnv(append([]string{key, prefixed}, names...)...)
	}

	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 3000)
	v.SetDefault("data-dir", "~/.hirescope")
	v.SetDefault("log-level", "info")
	v.SetDefault("cors-origins", []string{"*"})
	v.SetDefault("warm-cache", false)

	v.SetDefault("server.request-timeout", 5*time.Minute)
	v.SetDefault("server.shutdown-timeout", 30*time.Second)
	v.SetDefault("server.max-body-bytes", 64*1024)
	v.SetDefault("server.enable-hsts", false)

	v.SetDefault("github.base-url", "https://api.github.com")
	v.SetDefault("github.token", "")
	v.SetDefault("github.user-agent", "HireScope-App")
	v.SetDefault("github.requests-per-second", 10.0)
	v.SetDefault("github.burst", 10)
	v.SetDefault("github.timeout", 20*time.Second)
	v.SetDefault("github.retry-max", 2)
	v.SetDefault("github.readme-max-chars", 12000)

	v.SetDefault("gemini.api-key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash-lite")
	v.SetDefault("gemini.base-url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.timeout", 60*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.api-ttl", 10*time.Minute)
	v.SetDefault("cache.profile-ttl", 6*time.Hour)
	v.SetDefault("cache.result-ttl", 30*time.Minute)
	v.SetDefault("cache.external-ttl", 60*time.Minute)
	v.SetDefault("cache.leaderboard-ttl", 15*time.Minute)
	v.SetDefault("cache.sweep-interval", 5*time.Minute)

	v.SetDefault("rate-limit.max-requests", 20)
	v.SetDefault("rate-limit.window", 60*time.Second)

	v.SetDefault("selection.min-selected", 3)
	v.SetDefault("selection.max-selected", 5)
	v.SetDefault("selection.candidate-cap", 12)
	v.SetDefault("selection.commit-workers", 4)

	v.SetDefault("inspect.scan-budget", 8000)
	v.SetDefault("inspect.tree-preview", 40)
	v.SetDefault("inspect.max-depth", 6)
	v.SetDefault("inspect.clone-timeout", 120*time.Second)
	v.SetDefault("inspect.clone-max-output", 20*1024*1024)
	v.SetDefault("inspect.max-repo-size-kb", 250000)
	v.SetDefault("inspect.workers", 2)

	v.SetDefault("links.timeout", 7*time.Second)
	v.SetDefault("links.snippet-chars", 320)
	v.SetDefault("links.max-links", 8)
	v.SetDefault("links.workers", 2)
}

// Options tune how Load resolves values that live outside viper
type Options struct {
	// ConfigFile is an explicit config path; empty searches ./ and $HOME for .hirescope.yaml
	ConfigFile string
	// LookupEnv defaults to os.LookupEnv
	LookupEnv func(string) (string, bool)
	// GHToken asks the gh CLI for a token; nil runs `gh auth token`
	GHToken func(ctx context.Context) (string, error)
	// SkipGHCLI disables the gh CLI fallback
	SkipGHCLI bool
}

// Load reads the config file if present and resolves the final Config
func Load(ctx context.Context, v *viper.Viper, opts Options) (*Config, error) {
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(".hirescope")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	dataDir, err := homedir.Expand(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("expand data dir %q: %w", cfg.DataDir, err)
	}
	cfg.DataDir = dataDir

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg.GitHub.Token, cfg.GitHub.TokenSource = resolveGitHubToken(ctx, cfg.GitHub.Token, lookup, opts)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolveGitHubToken(ctx context.Context, configured string, lookup func(string) (string, bool), opts Options) (string, string) {
	for _, name := range githubTokenEnv {
		if value, ok := lookup(name); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), name
		}
	}
	if strings.TrimSpace(configured) != "" {
		return strings.TrimSpace(configured), TokenSourceConfig
	}
	if opts.SkipGHCLI {
		return "", TokenSourceNone
	}

	gh := opts.GHToken
	if gh == nil {
		gh = ghAuthToken
	}
	token, err := gh(ctx)
	if err != nil || strings.TrimSpace(token) == "" {
		return "", TokenSourceNone
	}
	return strings.TrimSpace(token), TokenSourceGHCLI
}

func ghAuthToken(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 1500*time.Millisecond)
	defer cancel()

	out, err := exec.CommandContext(ctx, "gh", "auth", "token").Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Validate checks the bounds the pipeline relies on
func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("port %d out of range", c.Port)
	case c.Selection.MinSelected < 1 || c.Selection.MaxSelected < c.Selection.MinSelected:
		return fmt.Errorf("selection bounds invalid: min %d, max %d", c.Selection.MinSelected, c.Selection.MaxSelected)
	case c.Selection.CandidateCap < c.Selection.MaxSelected:
		return fmt.Errorf("candidate cap %d below max selected %d", c.Selection.CandidateCap, c.Selection.MaxSelected)
	case c.RateLimit.MaxRequests <= 0 || c.RateLimit.Window <= 0:
		return fmt.Errorf("rate limit must be positive")
	case c.Inspect.ScanBudget <= 0 || c.Inspect.MaxDepth <= 0:
		return fmt.Errorf("inspect scan budget and depth must be positive")
	}
	return nil
}

// GitHubAuthenticated reports whether a token was found
func (c *Config) GitHubAuthenticated() bool {
	return c.GitHub.Token != ""
}
