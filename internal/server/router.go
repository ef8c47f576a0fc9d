package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter はルーティングを設定した gin.Engine を返します。
func NewRouter(h *Handler, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/healthz", h.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/styles", h.ListStyles)
		api.POST("/generations", h.CreateGeneration)
		api.GET("/generations/:id", h.GetGeneration)
		api.GET("/generations/:id/archive", h.DownloadArchive)
		api.POST("/generations/:id/slots/:slot/regenerate", h.RegenerateSlot)
		api.POST("/generations/:id/slots/:slot/navigate", h.NavigateSlot)
	}
	return router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"dur_ms", time.Since(start).Milliseconds(),
		)
	}
}
