// Package handler provides HTTP handlers for platform-level endpoints.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// readyTimeout bounds the dependency checks of /readyz.
const readyTimeout = time.Second

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health handles /healthz. It only proves the process is serving.
func Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// Ready handles /readyz. The gateway keeps serving from the upstream when the
// cache is down, so an unreachable cache reports "degraded" with 200.
func Ready(cache Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")

		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()

		if cache == nil {
			c.JSON(http.StatusOK, gin.H{"status": "degraded", "cache": "disabled"})
			return
		}
		if err := cache.Ping(ctx); err != nil {
			c.JSON(http.StatusOK, gin.H{"status": "degraded", "cache": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "cache": "ok"})
	}
}
