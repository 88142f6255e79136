package middleware

import (
	"github.com/dzhechko/pu-3d-avatar/infrastructure/metrics"
	"github.com/gin-gonic/gin"
	"strconv"
	"time"
)

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
