package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/tradeyard/auth-service/config"
	"github.com/tradeyard/auth-service/db"
	"github.com/tradeyard/auth-service/internal/auth/handler"
	repo "github.com/tradeyard/auth-service/internal/auth/repository/postgres"
	"github.com/tradeyard/auth-service/internal/auth/service"
	"github.com/tradeyard/auth-service/internal/geo"
	"github.com/tradeyard/auth-service/internal/ratelimit"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient, err := db.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}
	defer redisClient.Close()

	var geoResolver *geo.Resolver
	if cfg.GeoIPDBPath != "" {
		geoResolver, err = geo.NewResolver(cfg.GeoIPDBPath)
		if err != nil {
			logger.Warn("GeoIP database unavailable, session locations will be Unknown", zap.Error(err))
		} else {
			defer geoResolver.Close()
		}
	}

	store := ratelimit.NewRedisStore(redisClient)
	lockout := ratelimit.NewLockout(store, logger,
		cfg.LoginMaxAttempts, cfg.LockoutWindow(), cfg.LockoutWindow())

	repository := repo.NewPostgresRepository(dbPool)
	tokenService := service.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
		cfg.AccessExpiry(), cfg.RefreshExpiry())
	userService := service.NewUserService(repository, repository, repository,
		tokenService, lockout, cfg, logger)

	authHandler := handler.NewAuthHandler(userService, geoResolver, cfg)
	sessionHandler := handler.NewSessionHandler(userService)
	healthHandler := handler.NewHealthHandler(
		dbPool.Ping,
		func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	)

	globalLimiter := ratelimit.NewFixedWindowLimiter(store, "rl:global",
		cfg.GlobalLimit, time.Duration(cfg.GlobalWindowMin)*time.Minute)
	loginLimiter := ratelimit.NewFixedWindowLimiter(store, "rl:login",
		cfg.LoginLimit, time.Duration(cfg.LoginWindowMin)*time.Minute)
	registerLimiter := ratelimit.NewFixedWindowLimiter(store, "rl:register",
		cfg.RegisterLimit, time.Duration(cfg.RegisterWindowMin)*time.Minute)
	userLimiter := ratelimit.NewSlidingWindowLimiter(store, "rl:user",
		cfg.UserAPILimit, time.Duration(cfg.UserAPIWindowMin)*time.Minute)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler, sessionHandler, healthHandler, handler.Middlewares{
		GlobalLimit:   ratelimit.IPLimiterMiddleware(globalLimiter, cfg.RateLimitFailOpen, logger),
		LoginLimit:    ratelimit.IPLimiterMiddleware(loginLimiter, cfg.RateLimitFailOpen, logger),
		RegisterLimit: ratelimit.IPLimiterMiddleware(registerLimiter, cfg.RateLimitFailOpen, logger),
		UserThrottle:  ratelimit.UserLimiterMiddleware(userLimiter, handler.AuthUserIDKey, cfg.RateLimitFailOpen, logger),
		RequireAuth:   handler.RequireAuth(userService),
	})

	logger.Info("auth service listening", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
