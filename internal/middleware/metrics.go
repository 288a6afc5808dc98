package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/agreements-api/internal/service"
)

// unmatchedRoute labels requests that hit no registered route, keeping the path label bounded.
const unmatchedRoute = "unmatched"

// Metrics observes latency and status per route template. Routes listed in skip, such as probes, are not recorded.
func Metrics(metrics *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, route := range skip {
		skipped[route] = struct{}{}
	}
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, ok := skipped[route]; ok {
			return
		}
		if route == "" {
			route = unmatchedRoute
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
