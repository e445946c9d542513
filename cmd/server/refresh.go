package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/garyjia/sheet-snapshot/internal/container"
	"github.com/garyjia/sheet-snapshot/internal/report"
)

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "refresh [ledger|blocos|all]...",
		Short:     "Rebuild snapshots once and exit",
		ValidArgs: []string{report.NameLedger, report.NameBlocos, "all"},
		Args:      cobra.OnlyValidArgs,
		RunE:      runRefresh,
	}
}

func runRefresh(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	app, err := container.New(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	var names []string
	for _, arg := range args {
		if arg == "all" {
			names = nil
			break
		}
		names = append(names, arg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := app.Refresh(ctx, names...)
	for _, r := range results {
		pterm.Success.Printfln("%s: %d records written to %s (%d malformed rows)",
			r.Report, r.Records, r.OutputPath, r.MalformedRows)
	}
	if err != nil {
		pterm.Error.Println(err.Error())
		return fmt.Errorf("refresh failed: %w", err)
	}
	return nil
}
