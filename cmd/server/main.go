package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/d60-Lab/aiverse-api/config"
	"github.com/d60-Lab/aiverse-api/internal/app"
	"github.com/d60-Lab/aiverse-api/pkg/logger"
)

// @title           AIverse API
// @version         1.0
// @description     Posts, likes, comments and image uploads.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Server.Mode); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("init app", zap.Error(err))
		os.Exit(1)
	}
	defer a.Close(context.Background())

	if err := a.Run(ctx); err != nil {
		logger.Error("server exited", zap.Error(err))
		return
	}
	logger.Info("server exited")
}
