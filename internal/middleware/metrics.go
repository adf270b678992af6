package middleware

import (
	"strconv"
	"time"

	"github.com/admissions-dev/admissions/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request counts and latency per matched route. Requests
// that match no route share the "unmatched" label.
func Metrics() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.HTTPRequests.WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(ctx.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
