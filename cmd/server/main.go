package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/garyjia/luminate-erp/internal/config"
	"github.com/garyjia/luminate-erp/internal/container"
	httpapi "github.com/garyjia/luminate-erp/internal/interfaces/http"
	"github.com/garyjia/luminate-erp/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file, empty for defaults")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Service:    "luminate-erp",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Luminate ERP",
		zap.String("version", httpapi.Version),
		zap.Int("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("sync_target", cfg.Sync.Target))

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}

	logger.Info("Server exited successfully")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	containerCfg, err := cfg.ToContainerConfig()
	if err != nil {
		return err
	}

	c, err := container.NewContainer(containerCfg, logger)
	if err != nil {
		return err
	}

	// Cancelled on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return err
	}

	serveErr := c.Server().Start(ctx)
	if serveErr == nil {
		logger.Info("Shutting down server...")
	}

	if err := c.Close(); err != nil && serveErr == nil {
		return err
	}
	return serveErr
}
