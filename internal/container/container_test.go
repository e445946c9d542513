package container

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/sheet-snapshot/internal/config"
	"github.com/garyjia/sheet-snapshot/internal/models"
	"github.com/garyjia/sheet-snapshot/internal/snapshot"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		BaseDir: dir,
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            freePort(t),
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Reports: config.ReportsConfig{
			Ledger: config.ReportConfig{
				Source:   filepath.Join(dir, "CRED E DEB.xlsx"),
				Output:   filepath.Join(dir, "output.json"),
				StartRow: 3,
			},
			Blocos: config.ReportConfig{
				Source:   filepath.Join(dir, "BLOCOS.xlsx"),
				Output:   filepath.Join(dir, "responses.json"),
				StartRow: 2,
			},
		},
		Schedule: config.ScheduleConfig{Cron: "30 7-17 * * *", Timezone: "America/Sao_Paulo"},
		Database: config.DatabaseConfig{Enabled: true, Path: filepath.Join(dir, "data", "runs.db")},
		Logger:   config.LoggerConfig{Level: "info"},
	}
}

func writeLedgerWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetCellValue("Sheet1", "A1", "CRED E DEB"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Cliente"))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"Acme", 100, 0, 45000}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]interface{}{"Beta", 0, 25.5, 45001}))
	require.NoError(t, f.SaveAs(path))
}

func TestContainer_RefreshAndServe(t *testing.T) {
	cfg := testConfig(t)
	writeLedgerWorkbook(t, cfg.Reports.Ledger.Source)

	c, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	results, err := c.Refresh(context.Background())
	require.Error(t, err, "blocos source is missing")
	assert.True(t, errors.Is(err, snapshot.ErrSourceUnavailable))
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Records)
	assert.FileExists(t, cfg.Reports.Ledger.Output)
	assert.NoFileExists(t, cfg.Reports.Blocos.Output)

	runs, err := c.Runs().ListRecent("", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, run := range runs {
		assert.Equal(t, models.RunTriggerManual, run.Trigger)
	}

	require.NoError(t, c.Start(context.Background()))
	defer func() { require.NoError(t, c.Close()) }()

	base := "http://" + net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))

	resp, err := http.Get(base + "/creddeb")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	published, err := os.ReadFile(cfg.Reports.Ledger.Output)
	require.NoError(t, err)
	assert.Equal(t, published, body)

	resp, err = http.Get(base + "/blocos")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestContainer_RefreshUnknownReport(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Enabled = false

	c, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Refresh(context.Background(), "inventory")
	assert.Error(t, err)
	assert.Nil(t, c.Runs())
}

func TestContainer_Lifecycle(t *testing.T) {
	_, err := New(nil, zap.NewNop())
	assert.Error(t, err)

	cfg := testConfig(t)
	cfg.Database.Enabled = false
	c, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, c.Close())
	assert.Error(t, c.Close())
	assert.Error(t, c.Start(context.Background()))
}
