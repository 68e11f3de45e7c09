// Package httpserver builds the gin engine that serves the catalog REST API.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/fekuna/medequip-catalog-service/internal/pkg/httpapi"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/logger"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	APIPrefix    = "/api/v1"
	readyTimeout = 2 * time.Second
)

// RouteRegistrar is implemented by every domain HTTP handler.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

func NewRouter(log logger.ZapLogger, checks []ReadinessCheck, handlers ...RouteRegistrar) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.RequestContext(), middleware.RequestLogger(log))

	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()

		failed := map[string]string{}
		for _, chk := range checks {
			if err := chk.Check(ctx); err != nil {
				log.Warn("readiness check failed", zap.String("dependency", chk.Name), zap.Error(err))
				failed[chk.Name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failed": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	api := r.Group(APIPrefix)
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httpapi.Response{Success: false})
	})
	return r
}
