package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/twosidefinance/twoside-core/internal/config"
	"github.com/twosidefinance/twoside-core/internal/logger"
	"github.com/twosidefinance/twoside-core/internal/service"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configPath := "configs/config.json"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fallback, _ := zap.NewDevelopment()
		fallback.Fatal("Failed to load config", zap.Error(err))
	}

	log, err := logger.New(&logger.Config{
		LogFile:     cfg.LogFile,
		MaxSize:     100,
		MaxBackups:  3,
		MaxAge:      7,
		Compress:    true,
		Development: cfg.DebugLogging,
	})
	if err != nil {
		fallback, _ := zap.NewDevelopment()
		fallback.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer log.Sync()

	log.Info("Starting twoside service",
		zap.String("chain", cfg.Chain),
		zap.String("config", configPath))

	svc, err := service.NewFromConfig(ctx, cfg, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize service", zap.Error(err))
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Info("Signal received: " + sig.String())
		cancel()
	}()

	if err := svc.Run(ctx); err != nil {
		log.Fatal("Service execution error", zap.Error(err))
	}

	log.Info("Service shut down gracefully")
}
