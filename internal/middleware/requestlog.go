package middleware

import (
	"strconv"
	"time"

	"case-chat/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const RequestIDHeader = "X-Request-Id"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casechat_http_requests_total",
		Help: "HTTP requests served by the proxy.",
	}, []string{"route", "method", "code"})
	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "casechat_http_request_duration_seconds",
		Help:    "Latency of HTTP requests served by the proxy.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
)

// RequestID keeps a well-formed incoming X-Request-Id or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// AccessLog logs every request and feeds the HTTP metrics.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).Inc()
		httpLatency.WithLabelValues(route, c.Request.Method).Observe(elapsed.Seconds())

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"ms", elapsed.Milliseconds(),
			"request_id", c.GetString("request_id"),
		}
		if status >= 500 {
			logger.Warn("http.request", args...)
			return
		}
		logger.Info("http.request", args...)
	}
}
