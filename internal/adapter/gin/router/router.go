package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"user-crud-service/api"
	"user-crud-service/internal/adapter/gin/handler"
	"user-crud-service/internal/adapter/gin/middleware"
	"user-crud-service/pkg/logger"
)

// Options configures the router.
type Options struct {
	APIPrefix   string
	Production  bool
	CORSOrigins []string
	// RateLimit enables the Redis token bucket when both it and RedisClient are set.
	RateLimit   *middleware.RateLimitConfig
	RedisClient *redis.Client
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(
	opts Options,
	userHandler *handler.UserHandler,
	systemHandler *handler.SystemHandler,
	log *zap.Logger,
) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(logger.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log, !opts.Production))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(opts.CORSOrigins)))

	router.GET("/", systemHandler.Root)
	router.GET("/openapi.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", api.OpenAPI)
	})
	router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/openapi.json"))))

	base := router.Group(opts.APIPrefix)
	base.GET("/health", systemHandler.Health)
	base.GET("/ready", systemHandler.Ready)

	users := base.Group("/users")
	if opts.RateLimit != nil && opts.RedisClient != nil {
		users.Use(middleware.RateLimiter(opts.RedisClient, *opts.RateLimit, log))
	}
	{
		users.POST("", userHandler.CreateUser)
		users.GET("", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	router.NoRoute(systemHandler.NotFound)

	return router
}
