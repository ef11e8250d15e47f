package middleware

import (
	"strconv"

	"github.com/SscSPs/usage_billing_app/internal/platform/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMiddleware records request counts and latency per route template.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		timer := prometheus.NewTimer(metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route))

		c.Next()

		timer.ObserveDuration()
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
