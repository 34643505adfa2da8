// Package middleware holds transport-level gin middleware
package middleware

import (
	"compress/gzip"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// CompressionConfig holds configuration for response compression
type CompressionConfig struct {
	MinSize          int      // Minimum first-write size to compress (bytes)
	CompressionLevel int      // Gzip compression level (1-9, 9 is best compression)
	ContentTypes     []string // Content types to compress
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:          1024,
		CompressionLevel: gzip.DefaultCompression,
		ContentTypes: []string{
			"application/json",
			"text/plain",
			"text/html",
			"text/css",
			"application/javascript",
		},
	}
}

// CompressionMiddleware gzips large responses for clients that accept it
type CompressionMiddleware struct {
	config CompressionConfig
	stats  *CompressionStats
	pool   sync.Pool
}

// NewCompressionMiddleware creates a new compression middleware
func NewCompressionMiddleware(config CompressionConfig) *CompressionMiddleware {
	if config.CompressionLevel < gzip.HuffmanOnly || config.CompressionLevel > gzip.BestCompression {
		config.CompressionLevel = gzip.DefaultCompression
	}
	cm := &CompressionMiddleware{config: config, stats: NewCompressionStats()}
	cm.pool.New = func() interface{} {
		gz, _ := gzip.NewWriterLevel(nil, config.CompressionLevel)
		return gz
	}
	return cm
}

// Handler returns the gin middleware
func (cm *CompressionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !clientAcceptsGzip(c.Request) {
			c.Next()
			return
		}

		gzw := &gzipResponseWriter{ResponseWriter: c.Writer, owner: cm}
		c.Writer = gzw
		defer func() {
			c.Writer = gzw.ResponseWriter
			cm.finish(gzw)
		}()

		c.Next()
	}
}

func clientAcceptsGzip(r *http.Request) bool {
	if r.Method == http.MethodHead || r.Header.Get("Upgrade") != "" {
		return false
	}
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}

// shouldCompress checks if the content type should be compressed
func (cm *CompressionMiddleware) shouldCompress(contentType string, size int) bool {
	if size < cm.config.MinSize {
		return false
	}
	for _, ct := range cm.config.ContentTypes {
		if strings.Contains(contentType, ct) {
			return true
		}
	}
	return false
}

func (cm *CompressionMiddleware) finish(gzw *gzipResponseWriter) {
	if gzw.gz == nil {
		cm.stats.RecordRequest(int64(gzw.rawBytes), int64(gzw.rawBytes), false)
		return
	}
	_ = gzw.gz.Close()
	gzw.gz.Reset(nil)
	cm.pool.Put(gzw.gz)
	cm.stats.RecordRequest(int64(gzw.rawBytes), int64(gzw.ResponseWriter.Size()), true)
}

// gzipResponseWriter decides on the first write whether the body is worth
// compressing; later writes follow that decision.
type gzipResponseWriter struct {
	gin.ResponseWriter
	owner    *CompressionMiddleware
	gz       *gzip.Writer
	decided  bool
	rawBytes int
}

// Write writes data through the gzip writer once compression has started
func (gzw *gzipResponseWriter) Write(data []byte) (int, error) {
	if !gzw.decided {
		gzw.decided = true
		h := gzw.Header()
		if !gzw.ResponseWriter.Written() && h.Get("Content-Encoding") == "" &&
			gzw.owner.shouldCompress(h.Get("Content-Type"), len(data)) {
			gzw.gz = gzw.owner.pool.Get().(*gzip.Writer)
			gzw.gz.Reset(gzw.ResponseWriter)
			h.Set("Content-Encoding", "gzip")
			h.Add("Vary", "Accept-Encoding")
			h.Del("Content-Length")
		}
	}

	gzw.rawBytes += len(data)
	if gzw.gz == nil {
		return gzw.ResponseWriter.Write(data)
	}
	return gzw.gz.Write(data)
}

// WriteString routes string writes through Write
func (gzw *gzipResponseWriter) WriteString(s string) (int, error) {
	return gzw.Write([]byte(s))
}

// Flush flushes the gzip writer
func (gzw *gzipResponseWriter) Flush() {
	if gzw.gz != nil {
		_ = gzw.gz.Flush()
	}
	gzw.ResponseWriter.Flush()
}

// CompressionStats tracks compression statistics
type CompressionStats struct {
	TotalRequests      int64
	CompressedRequests int64
	TotalBytes         int64
	OriginalBytes      int64 // uncompressed size of the compressed responses
	CompressedBytes    int64
	mutex              sync.RWMutex
}

// NewCompressionStats creates new compression statistics
func NewCompressionStats() *CompressionStats {
	return &CompressionStats{}
}

// RecordRequest records a request's compression stats
func (cs *CompressionStats) RecordRequest(originalSize, compressedSize int64, compressed bool) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.TotalRequests++
	cs.TotalBytes += originalSize

	if compressed {
		cs.CompressedRequests++
		cs.OriginalBytes += originalSize
		cs.CompressedBytes += compressedSize
	}
}

// GetStats returns current compression statistics
func (cs *CompressionStats) GetStats() map[string]interface{} {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	compressionRatio := float64(0)
	if cs.OriginalBytes > 0 {
		compressionRatio = float64(cs.CompressedBytes) / float64(cs.OriginalBytes)
	}

	return map[string]interface{}{
		"total_requests":      cs.TotalRequests,
		"compressed_requests": cs.CompressedRequests,
		"total_bytes":         cs.TotalBytes,
		"compressed_bytes":    cs.CompressedBytes,
		"compression_ratio":   compressionRatio,
	}
}

// GetStats returns compression statistics
func (cm *CompressionMiddleware) GetStats() map[string]interface{} {
	return cm.stats.GetStats()
}
