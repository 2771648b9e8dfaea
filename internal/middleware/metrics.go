package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/datecheck-bot/internal/service"
)

// unmatchedPath labels requests that hit no route, so scanners probing random
// URLs cannot grow the label set.
const unmatchedPath = "unmatched"

// Metrics records the duration and status of every liveness server request,
// labelled by route template.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
