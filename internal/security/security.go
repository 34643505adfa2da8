// Package security holds the HTTP hardening middleware: response headers,
// request deadlines, body limits, content-type checks and CORS.
package security

import (
	"context"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// apiCSP applies to every JSON route; the swagger UI is exempt because it
// ships inline scripts.
const apiCSP = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"

// Config holds security configuration
type Config struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	EnableHSTS     bool
}

// DefaultConfig returns the defaults used when nothing is configured
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
		RequestTimeout: 5 * time.Minute,
		MaxBodyBytes:   64 * 1024,
	}
}

// Middleware bundles the hardening handlers for one Config
type Middleware struct {
	config Config
}

// NewMiddleware creates a new security middleware instance
func NewMiddleware(config Config) *Middleware {
	def := DefaultConfig()
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = def.RequestTimeout
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = def.MaxBodyBytes
	}
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = def.AllowedOrigins
	}
	return &Middleware{config: config}
}

// SecurityHeaders adds security headers to responses
func (m *Middleware) SecurityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Header("X-XSS-Protection", "1; mode=block")
	c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
	c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

	if m.config.EnableHSTS {
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}
	if !strings.HasPrefix(c.Request.URL.Path, "/swagger/") {
		c.Header("Content-Security-Policy", apiCSP)
	}

	c.Next()
}

// RequestTimeout bounds the request context. Analysis work started by the
// handler inherits the deadline.
func (m *Middleware) RequestTimeout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), m.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Timeout", strconv.Itoa(int(m.config.RequestTimeout.Seconds())))

	c.Next()
}

// LimitBody caps how many body bytes a handler can read
func (m *Middleware) LimitBody(c *gin.Context) {
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, m.config.MaxBodyBytes)
	}
	c.Next()
}

// ValidateContentType rejects request bodies that are not JSON
func (m *Middleware) ValidateContentType(c *gin.Context) {
	if !carriesBody(c.Request) {
		c.Next()
		return
	}

	mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if err != nil || mediaType != "application/json" {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{
			"error": "Content-Type must be application/json.",
		})
		c.Abort()
		return
	}

	c.Next()
}

func carriesBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return r.ContentLength != 0
	}
	return false
}

// CORS builds the cross-origin handler. A "*" entry allows every origin
// without credentials.
func (m *Middleware) CORS() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}

	for _, origin := range m.config.AllowedOrigins {
		if strings.TrimSpace(origin) == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
	}
	for _, origin := range m.config.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}
	cfg.AllowCredentials = true
	return cors.New(cfg)
}
