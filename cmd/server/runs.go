package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/garyjia/sheet-snapshot/internal/container"
	"github.com/garyjia/sheet-snapshot/internal/models"
)

func newRunsCmd() *cobra.Command {
	var reportName string
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent snapshot refresh runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if app.Runs() == nil {
				return fmt.Errorf("run history is disabled (database.enabled=false)")
			}

			runs, err := app.Runs().ListRecent(reportName, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				pterm.Info.Println("No runs recorded yet")
				return nil
			}
			return pterm.DefaultTable.WithHasHeader().WithData(runsTable(runs, cfg.Schedule.Timezone)).Render()
		},
	}

	cmd.Flags().StringVarP(&reportName, "report", "r", "", "Only show runs of this report")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}

func runsTable(runs []*models.SnapshotRun, timezone string) pterm.TableData {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.Local
	}

	data := pterm.TableData{{"Started", "Report", "Trigger", "Status", "Records", "Malformed", "Duration", "Error"}}
	for _, run := range runs {
		duration := "-"
		if run.FinishedAt != nil {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		data = append(data, []string{
			run.StartedAt.In(loc).Format("2006-01-02 15:04:05"),
			run.Report,
			run.Trigger,
			statusLabel(run.Status),
			strconv.Itoa(run.RecordCount),
			strconv.Itoa(run.MalformedRows),
			duration,
			run.ErrorMessage,
		})
	}
	return data
}

func statusLabel(status string) string {
	switch status {
	case models.RunStatusSucceeded:
		return pterm.Green(status)
	case models.RunStatusFailed:
		return pterm.Red(status)
	case models.RunStatusSkipped:
		return pterm.Yellow(status)
	default:
		return status
	}
}
