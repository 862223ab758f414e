package middleware

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Stats represents endpoint-specific statistics
type Stats struct {
	Count         int64         `json:"count"`
	TotalDuration time.Duration `json:"total_duration"`
	AverageTime   time.Duration `json:"average_time"`
	ErrorCount    int64         `json:"error_count"`
	SlowCount     int64         `json:"slow_count"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated  uint64 `json:"allocated"`
	TotalAlloc uint64 `json:"total_alloc"`
	Sys        uint64 `json:"sys"`
	GCRuns     uint32 `json:"gc_runs"`
}

// PerformanceMonitor tracks request counts and latency per endpoint
type PerformanceMonitor struct {
	mu            sync.Mutex
	requestCount  int64
	endpointStats map[string]Stats
	slowThreshold time.Duration
	startTime     time.Time
}

// NewPerformanceMonitor creates a new performance monitor
func NewPerformanceMonitor(slowThreshold time.Duration) *PerformanceMonitor {
	return &PerformanceMonitor{
		endpointStats: make(map[string]Stats),
		slowThreshold: slowThreshold,
		startTime:     time.Now(),
	}
}

// PerformanceMiddleware tracks request performance
func (pm *PerformanceMonitor) PerformanceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		endpoint := fmt.Sprintf("%s %s", method, c.FullPath())

		if c.FullPath() == "/health" {
			c.Next()
			return
		}

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		pm.record(endpoint, duration, status >= 400)

		// Log slow requests
		if duration > pm.slowThreshold {
			log.Printf("SLOW REQUEST: %s %s took %v (status: %d)",
				method, c.Request.URL.Path, duration, status)
		}

		// Log errors
		if status >= 500 {
			log.Printf("ERROR REQUEST: %s %s returned %d in %v",
				method, c.Request.URL.Path, status, duration)
		}

		c.Header("X-Response-Time", duration.String())
	}
}

func (pm *PerformanceMonitor) record(endpoint string, duration time.Duration, isError bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.requestCount++

	stats := pm.endpointStats[endpoint]
	stats.Count++
	stats.TotalDuration += duration
	stats.AverageTime = stats.TotalDuration / time.Duration(stats.Count)
	if isError {
		stats.ErrorCount++
	}
	if duration > pm.slowThreshold {
		stats.SlowCount++
	}
	pm.endpointStats[endpoint] = stats
}

// Snapshot returns the current metrics for the health endpoint
func (pm *PerformanceMonitor) Snapshot() gin.H {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var totalErrors int64
	endpoints := make(map[string]Stats, len(pm.endpointStats))
	for endpoint, stats := range pm.endpointStats {
		totalErrors += stats.ErrorCount
		endpoints[endpoint] = stats
	}

	errorRate := 0.0
	if pm.requestCount > 0 {
		errorRate = float64(totalErrors) / float64(pm.requestCount) * 100
	}

	return gin.H{
		"uptime":     time.Since(pm.startTime).String(),
		"requests":   pm.requestCount,
		"error_rate": fmt.Sprintf("%.2f%%", errorRate),
		"endpoints":  endpoints,
		"memory": MemoryStats{
			Allocated:  m.Alloc,
			TotalAlloc: m.TotalAlloc,
			Sys:        m.Sys,
			GCRuns:     m.NumGC,
		},
	}
}

// SecurityHeadersMiddleware adds security headers
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// RequestSizeLimitMiddleware limits request body size
func RequestSizeLimitMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			c.JSON(413, gin.H{"error": "Request entity too large"})
			c.Abort()
			return
		}

		c.Next()
	}
}
