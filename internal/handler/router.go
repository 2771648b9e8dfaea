package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/datecheck-bot/internal/middleware"
	"github.com/noah-isme/datecheck-bot/internal/service"
	"github.com/noah-isme/datecheck-bot/pkg/config"
	appErrors "github.com/noah-isme/datecheck-bot/pkg/errors"
	"github.com/noah-isme/datecheck-bot/pkg/logger"
	"github.com/noah-isme/datecheck-bot/pkg/middleware/cors"
	"github.com/noah-isme/datecheck-bot/pkg/middleware/requestid"
	"github.com/noah-isme/datecheck-bot/pkg/response"
)

// NewRouter builds the liveness server. The availability route is mounted
// only when availability is non-nil.
func NewRouter(cfg *config.Config, metrics *service.MetricsService, availability *AvailabilityHandler, logr *zap.Logger) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	if logr == nil {
		logr = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestid.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics))

	probes := NewMetricsHandler(metrics)
	r.GET("/", probes.Alive)
	r.HEAD("/", probes.Alive)
	r.GET("/health", probes.Health)
	r.GET("/metrics", probes.Prometheus)

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.ErrNotFound)
	})

	if availability != nil {
		api := r.Group("/api/v1", cors.New(cfg.HTTP.AllowedOrigins))
		api.GET("/availability", availability.Check)
		api.OPTIONS("/availability", func(c *gin.Context) {})
	}
	return r
}
