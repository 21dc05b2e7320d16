package middleware

import (
	"context"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/ticketbook/backend/internal/infrastructure/telemetry"
)

// Profiling tags the CPU samples of each request with its method and route
// pattern. Requests to skipPaths are left unlabelled.
func Profiling(enabled bool, skipPaths ...string) gin.HandlerFunc {
	if !enabled {
		return passThrough
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || slices.Contains(skipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		labels := map[string]string{
			telemetry.ProfilingLabelMethod: c.Request.Method,
			telemetry.ProfilingLabelRoute:  route,
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
