package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck pings a dependency; nil checks are skipped.
type HealthCheck func(ctx context.Context) error

// Health reports ok only when every dependency check passes.
func Health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		failed := gin.H{}
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(503, gin.H{"status": "degraded", "failed": failed})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	}
}
