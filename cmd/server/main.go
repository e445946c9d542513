package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/sheet-snapshot/internal/config"
	"github.com/garyjia/sheet-snapshot/pkg/utils"
)

const version = "1.0.0"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "sheet-snapshot",
		Short: "Publish spreadsheet reports as JSON snapshots",
		Long: `sheet-snapshot converts the CRED E DEB and BLOCOS spreadsheets into
JSON snapshots on a fixed schedule and serves them over HTTP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("SNAPSHOT_CONFIG"),
		"Path to a YAML config file (optional)")

	rootCmd.AddCommand(newServeCmd(), newRefreshCmd(), newRunsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger shared by every command
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Service:    "sheet-snapshot",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}
