// Package app 根据配置装配并运行 HTTP 服务
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/aiverse-api/config"
	"github.com/d60-Lab/aiverse-api/internal/api"
	"github.com/d60-Lab/aiverse-api/internal/api/handler"
	"github.com/d60-Lab/aiverse-api/internal/api/middleware"
	"github.com/d60-Lab/aiverse-api/internal/media"
	"github.com/d60-Lab/aiverse-api/internal/repository"
	"github.com/d60-Lab/aiverse-api/internal/service"
	"github.com/d60-Lab/aiverse-api/pkg/database"
	"github.com/d60-Lab/aiverse-api/pkg/jwt"
	"github.com/d60-Lab/aiverse-api/pkg/logger"
	"github.com/d60-Lab/aiverse-api/pkg/tracing"
)

type App struct {
	cfg      *config.Config
	db       *gorm.DB
	rdb      *redis.Client
	engine   *gin.Engine
	shutdown tracing.ShutdownFunc
}

// New 初始化全部依赖；任何一步失败都会释放已创建的资源
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	gin.SetMode(ginMode(cfg.Server.Mode))
	a := &App{cfg: cfg, shutdown: func(context.Context) error { return nil }}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	if cfg.Sentry.DSN != "" {
		if err = sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			SampleRate:       cfg.Sentry.SampleRate,
			AttachStacktrace: true,
		}); err != nil {
			return nil, fmt.Errorf("init sentry: %w", err)
		}
	}

	if a.shutdown, err = tracing.Init(ctx, cfg.Tracing); err != nil {
		return nil, err
	}

	if a.db, err = database.InitDB(cfg); err != nil {
		return nil, err
	}

	a.rdb = connectRedis(ctx, cfg.Redis)

	store, err := media.NewStorage(cfg)
	if err != nil {
		return nil, err
	}
	pipeline := media.NewPipeline(store,
		media.WithSize(cfg.Upload.OutputSize),
		media.WithQuality(cfg.Upload.Quality),
		media.WithMaxPixels(cfg.Upload.MaxPixels),
	)

	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Expire)
	userRepo := repository.NewUserRepository(a.db)
	postService := service.NewPostService(
		repository.NewPostRepository(a.db),
		repository.NewLikeRepository(a.db),
		repository.NewCommentRepository(a.db),
		userRepo,
	)
	authService := service.NewAuthService(userRepo, jwtService)

	if err = handler.RegisterValidators(); err != nil {
		return nil, err
	}
	h := handler.NewHandler(postService, authService, pipeline, store,
		handler.WithMaxUploadBytes(cfg.Upload.MaxBytes),
		handler.WithHealthCheck(a.ping),
	)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(a.rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}
	a.engine = api.NewRouter(cfg, h, jwtService, limiter)
	return a, nil
}

// Handler 供测试或自定义 server 使用
func (a *App) Handler() http.Handler { return a.engine }

// Run 阻塞直到 ctx 结束，然后优雅关闭
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Close 释放数据库、redis、tracing 与 sentry
func (a *App) Close(ctx context.Context) {
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			logger.Error("close database", zap.Error(err))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			logger.Error("close redis", zap.Error(err))
		}
	}
	if err := a.shutdown(ctx); err != nil {
		logger.Error("shutdown tracing", zap.Error(err))
	}
	sentry.Flush(2 * time.Second)
}

func (a *App) ping(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// connectRedis redis 不可用时返回 nil，限流退化为进程内实现
func connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-process rate limiter", zap.String("addr", cfg.Addr), zap.Error(err))
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func ginMode(mode string) string {
	switch mode {
	case gin.ReleaseMode, gin.TestMode:
		return mode
	default:
		return gin.DebugMode
	}
}
