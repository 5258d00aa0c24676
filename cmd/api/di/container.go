package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-crud-service/cmd/api/infrastructure"
	"user-crud-service/internal/adapter/db/postgres"
	ginhandler "user-crud-service/internal/adapter/gin/handler"
	"user-crud-service/internal/adapter/gin/middleware"
	"user-crud-service/internal/adapter/repository/observed"
	"user-crud-service/internal/config"
	"user-crud-service/internal/usecase/user"
	redisclient "user-crud-service/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	DB            *gorm.DB
	RedisClient   *redisclient.Client
	UserUC        user.Usecase
	UserHandler   *ginhandler.UserHandler
	SystemHandler *ginhandler.SystemHandler
}

// NewContainer validates the configuration, connects to the database,
// migrates it and builds the handler graph. Redis is connected only when
// rate limiting is enabled.
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	db, err := infrastructure.NewDatabase(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := infrastructure.MigrateDatabase(ctx, db, cfg, l); err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, err
	}

	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	slow := time.Duration(cfg.Logger.SlowQuerySeconds * float64(time.Second))
	repo := observed.NewUserRepository(postgres.NewUserRepoPG(db, l), l, observed.WithSlowThreshold(slow))
	userUC := user.New(repo, l)

	checkers := []ginhandler.HealthChecker{infrastructure.DatabaseChecker{DB: db}}
	if rdb != nil {
		checkers = append(checkers, rdb)
	}

	return &Container{
		Config:      cfg,
		Logger:      l,
		DB:          db,
		RedisClient: rdb,
		UserUC:      userUC,
		UserHandler: ginhandler.NewUserHandler(userUC, l, cfg.IsProduction()),
		SystemHandler: ginhandler.NewSystemHandler(
			cfg.Logger.ServiceName,
			cfg.Logger.ServiceVersion,
			cfg.App.APIPrefix,
			l,
			checkers...,
		),
	}, nil
}

// RateLimit returns the rate limiter settings and Redis client for the
// router, or nils when rate limiting is off.
func (c *Container) RateLimit() (*middleware.RateLimitConfig, *goredis.Client) {
	if c.RedisClient == nil {
		return nil, nil
	}
	return &middleware.RateLimitConfig{
		RequestsPerSecond: c.Config.RateLimit.RequestsPerSecond,
		BurstCapacity:     c.Config.RateLimit.BurstCapacity,
	}, c.RedisClient.Client
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
