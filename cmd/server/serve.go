package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/sheet-snapshot/internal/container"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the refresh schedule (default)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting sheet-snapshot",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("base_dir", cfg.BaseDir))

	app, err := container.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to build application", zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		logger.Error("Failed to start application", zap.Error(err))
		_ = app.Close()
		return err
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-app.ServerErrors():
		logger.Error("HTTP server failed", zap.Error(err))
	}

	if err := app.Close(); err != nil {
		logger.Error("Shutdown finished with errors", zap.Error(err))
		return err
	}
	logger.Info("Server exited successfully")
	return nil
}
