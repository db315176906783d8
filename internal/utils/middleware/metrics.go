package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pixelgate/server/internal/utils/metrics"
)

// Metrics returns a middleware that records request counts and latency.
// Paths are labelled by route template; unmatched paths share one label.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
