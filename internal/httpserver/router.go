package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"habitkeeper/internal/handler"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Broker is the event publisher as seen by readiness checks.
type Broker interface {
	IsConnected() bool
}

type RouterConfig struct {
	JWTSecret string
	Owner     string
	Storage   Pinger
	Broker    Broker // nil when events are disabled
}

func NewRouter(habitHandler *handler.HabitHandler, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(RequestLogger(logger))

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/health", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if cfg.Storage != nil {
			if err := cfg.Storage.Ping(ctx); err != nil {
				c.JSON(500, gin.H{"status": "storage_not_ready", "error": err.Error()})
				return
			}
		}

		if cfg.Broker != nil && !cfg.Broker.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/")
	if cfg.JWTSecret != "" {
		api.Use(AuthMiddleware(cfg.JWTSecret, cfg.Owner))
	}
	{
		api.GET("/habits", habitHandler.ListHabits)
		api.POST("/habits", habitHandler.CreateHabit)
		api.GET("/habits/:id", habitHandler.GetHabit)
		api.POST("/habits/:id/toggle", habitHandler.ToggleCompletion)
		api.DELETE("/habits/:id", habitHandler.DeleteHabit)
		api.GET("/habits/:id/stats", habitHandler.HabitStats)
		api.GET("/stats", habitHandler.OverallStats)
	}

	return r
}
