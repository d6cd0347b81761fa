package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"livedock/internal/core/services"
	"livedock/internal/infrastructure/monitoring"
	"livedock/internal/infrastructure/platform"
	"livedock/internal/infrastructure/proxy"
	"livedock/internal/infrastructure/repositories/file"
	"livedock/pkg/config"
	"livedock/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"config.yaml",
	}
	if v := os.Getenv("LIVEDOCK_CONFIG"); v != "" {
		configPaths = append([]string{v}, configPaths...)
	}

	var cfg *config.Config
	var err error
	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Could not initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	store := file.NewSettingsStore(cfg.Panel.DataDir, zapLogger)
	if err := store.Initialize(); err != nil {
		zapLogger.Fatal("cannot initialize settings store", zap.Error(err))
	}

	var collector *monitoring.Collector
	if cfg.Monitoring.MetricsEnabled {
		collector = monitoring.NewCollector()
	}

	client := platform.NewClient(
		cfg.API.BaseURL,
		store,
		platform.DefaultIdentification(cfg.API.ClientVersion),
		collector,
		zapLogger,
	)
	client.SetTimeoutFloor(cfg.API.TimeoutFloor)

	opts := proxy.Options{Metrics: collector}
	if cfg.RateLimiting.Enabled {
		opts.RateLimitPerSecond = cfg.RateLimiting.RequestsPerSecond
		opts.RateLimitBurst = cfg.RateLimiting.Burst
	}
	server := proxy.NewServer(cfg.Panel.Address, cfg.Panel.AssetRoot, client, opts, zapLogger)
	if err := server.Start(); err != nil {
		zapLogger.Fatal("cannot start panel server", zap.Error(err))
	}

	session := services.NewSessionService(client, store, collector, cfg.Liveness.CheckInterval, zapLogger)

	zapLogger.Info("dock host running",
		zap.Int("panel_port", server.Port()),
		zap.String("data_dir", cfg.Panel.DataDir),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down")
	session.Shutdown()
	if err := server.Stop(); err != nil {
		zapLogger.Warn("panel server stop", zap.Error(err))
	}
}
