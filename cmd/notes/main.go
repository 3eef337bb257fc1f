package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	kayannotes "github.com/getkayan/kayan-notes"
	"github.com/getkayan/kayan-notes/config"
	"github.com/getkayan/kayan-notes/logger"
	"go.uber.org/zap"
)

func main() {
	config.LoadDotEnv(".env")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger.InitLogger(cfg.LogLevel)
	defer logger.Log.Sync()

	logger.Log.Info("Starting notes service",
		zap.Int("port", cfg.Port),
		zap.String("db_type", cfg.DBType),
		zap.String("combinator", cfg.PolicyCombinator),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := kayannotes.New(ctx, cfg, logger.Log)
	if err != nil {
		logger.Log.Fatal("failed to initialize service", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() { errCh <- app.Start(fmt.Sprintf(":%d", cfg.Port)) }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Log.Error("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("shutdown failed", zap.Error(err))
	}
}
