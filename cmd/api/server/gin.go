package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-crud-service/cmd/api/di"
	ginrouter "user-crud-service/internal/adapter/gin/router"
)

// SetupGinServer creates the Gin router for the container's handlers and
// wraps it in an http.Server listening on ":"+HTTP_PORT.
func SetupGinServer(c *di.Container, l *zap.Logger) *http.Server {
	if c.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rateLimit, redisClient := c.RateLimit()
	router := ginrouter.SetupRouter(
		ginrouter.Options{
			APIPrefix:   c.Config.App.APIPrefix,
			Production:  c.Config.IsProduction(),
			CORSOrigins: c.Config.App.CORSAllowedOrigins,
			RateLimit:   rateLimit,
			RedisClient: redisClient,
		},
		c.UserHandler,
		c.SystemHandler,
		l,
	)

	addr := ":" + c.Config.App.HTTPPort
	l.Info("Gin REST API configured",
		zap.String("address", addr),
		zap.String("api_prefix", c.Config.App.APIPrefix),
		zap.Bool("rate_limit", rateLimit != nil),
	)

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
