package security

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMiddlewareFillsDefaults(t *testing.T) {
	m := NewMiddleware(Config{})

	assert.Equal(t, 5*time.Minute, m.config.RequestTimeout)
	assert.Equal(t, int64(64*1024), m.config.MaxBodyBytes)
	assert.Equal(t, []string{"*"}, m.config.AllowedOrigins)
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMiddleware(Config{EnableHSTS: true})

	r := gin.New()
	r.Use(m.SecurityHeaders)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/swagger/*any", func(c *gin.Context) {
		c.String(http.StatusOK, "ui")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	headers := w.Header()
	assert.Equal(t, "nosniff", headers.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", headers.Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", headers.Get("Referrer-Policy"))
	assert.Contains(t, headers.Get("Strict-Transport-Security"), "max-age=31536000")
	assert.Contains(t, headers.Get("Content-Security-Policy"), "default-src 'none'")

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/swagger/index.html", nil)
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Content-Security-Policy"))
}

func TestSecurityHeadersWithoutHSTS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewMiddleware(Config{}).SecurityHeaders)
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	r.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestValidateContentType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMiddleware(DefaultConfig())

	r := gin.New()
	r.Use(m.ValidateContentType)
	r.POST("/api/analyze", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		contentType    string
		expectedStatus int
	}{
		{"valid JSON", "POST", "/api/analyze", `{"username":"octocat"}`, "application/json", http.StatusOK},
		{"JSON with charset", "POST", "/api/analyze", `{"username":"octocat"}`, "application/json; charset=utf-8", http.StatusOK},
		{"form data", "POST", "/api/analyze", "username=octocat", "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"plain text", "POST", "/api/analyze", "octocat", "text/plain", http.StatusUnsupportedMediaType},
		{"missing content type", "POST", "/api/analyze", `{"username":"octocat"}`, "", http.StatusUnsupportedMediaType},
		{"empty body", "POST", "/api/analyze", "", "", http.StatusOK},
		{"GET ignored", "GET", "/health", "", "text/plain", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			r.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestLimitBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMiddleware(Config{MaxBodyBytes: 16})

	r := gin.New()
	r.Use(m.LimitBody)
	r.POST("/echo", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.String(http.StatusOK, string(body))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/echo", strings.NewReader("short"))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "short", w.Body.String())

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/echo", strings.NewReader(strings.Repeat("x", 17)))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMiddleware(Config{RequestTimeout: 20 * time.Millisecond})

	r := gin.New()
	r.Use(m.RequestTimeout)

	var deadline time.Time
	var hasDeadline bool
	var ctxErr error
	r.GET("/slow", func(c *gin.Context) {
		deadline, hasDeadline = c.Request.Context().Deadline()
		<-c.Request.Context().Done()
		ctxErr = c.Request.Context().Err()
		c.Status(http.StatusGatewayTimeout)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/slow", nil)
	start := time.Now()
	r.ServeHTTP(w, req)

	require.True(t, hasDeadline)
	assert.WithinDuration(t, start.Add(20*time.Millisecond), deadline, 50*time.Millisecond)
	assert.Error(t, ctxErr)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "0", w.Header().Get("X-Timeout"))
}

func TestCORSAllowList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMiddleware(Config{AllowedOrigins: []string{"http://localhost:5173"}})

	r := gin.New()
	r.Use(m.CORS())
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "test"})
	})

	tests := []struct {
		name           string
		origin         string
		method         string
		expectedStatus int
		checkCORS      bool
	}{
		{"allowed origin", "http://localhost:5173", "GET", http.StatusOK, true},
		{"disallowed origin", "http://evil.com", "GET", http.StatusForbidden, false},
		{"OPTIONS preflight", "http://localhost:5173", "OPTIONS", http.StatusNoContent, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(tt.method, "/test", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.method == "OPTIONS" {
				req.Header.Set("Access-Control-Request-Method", "GET")
			}

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.checkCORS {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
				assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}

func TestCORSWildcard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewMiddleware(Config{AllowedOrigins: []string{"*"}}).CORS())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "http://anywhere.example")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}
