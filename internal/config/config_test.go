package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	base := t.TempDir()
	t.Setenv("SNAPSHOT_BASE_DIR", base)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:3000", cfg.Addr())
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, filepath.Join(base, "CRED E DEB.xlsx"), cfg.Reports.Ledger.Source)
	assert.Equal(t, filepath.Join(base, "output.json"), cfg.Reports.Ledger.Output)
	assert.Equal(t, 3, cfg.Reports.Ledger.StartRow)
	assert.Equal(t, filepath.Join(base, "BLOCOS.xlsx"), cfg.Reports.Blocos.Source)
	assert.Equal(t, filepath.Join(base, "responses.json"), cfg.Reports.Blocos.Output)
	assert.Equal(t, 18310, cfg.Reports.Blocos.StartRow)

	assert.Equal(t, "30 7-17 * * *", cfg.Schedule.Cron)
	assert.Equal(t, "America/Sao_Paulo", cfg.Schedule.Timezone)
	assert.False(t, cfg.Schedule.RunOnStart)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", loc.String())

	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, filepath.Join(base, "data", "snapshot_runs.db"), cfg.Database.Path)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SNAPSHOT_BASE_DIR", t.TempDir())

	t.Run("PORT", func(t *testing.T) {
		t.Setenv("PORT", "8081")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 8081, cfg.Server.Port)
	})

	t.Run("prefixed keys", func(t *testing.T) {
		t.Setenv("SNAPSHOT_SCHEDULE_CRON", "*/5 * * * *")
		t.Setenv("SNAPSHOT_REPORTS_BLOCOS_START_ROW", "2")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "*/5 * * * *", cfg.Schedule.Cron)
		assert.Equal(t, 2, cfg.Reports.Blocos.StartRow)
	})
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
base_dir: ` + dir + `
server:
  port: 9090
reports:
  ledger:
    source: /srv/planilhas/creddeb.xlsx
    output: snapshots/creddeb.json
schedule:
  timezone: UTC
  run_on_start: true
database:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/srv/planilhas/creddeb.xlsx", cfg.Reports.Ledger.Source)
	assert.Equal(t, filepath.Join(dir, "snapshots", "creddeb.json"), cfg.Reports.Ledger.Output)
	assert.Equal(t, 3, cfg.Reports.Ledger.StartRow)
	assert.Equal(t, "UTC", cfg.Schedule.Timezone)
	assert.True(t, cfg.Schedule.RunOnStart)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: 3000},
			Reports: ReportsConfig{
				Ledger: ReportConfig{Source: "a.xlsx", Output: "a.json", StartRow: 3},
				Blocos: ReportConfig{Source: "b.xlsx", Output: "b.json", StartRow: 18310},
			},
			Schedule: ScheduleConfig{Cron: "30 7-17 * * *", Timezone: "America/Sao_Paulo"},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"missing source", func(c *Config) { c.Reports.Blocos.Source = "" }, "reports.blocos.source"},
		{"missing output", func(c *Config) { c.Reports.Ledger.Output = "" }, "reports.ledger.output"},
		{"start row", func(c *Config) { c.Reports.Ledger.StartRow = 0 }, "start_row"},
		{"empty cron", func(c *Config) { c.Schedule.Cron = "" }, "schedule.cron"},
		{"unknown zone", func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }, "schedule.timezone"},
		{"database path", func(c *Config) { c.Database.Enabled = true }, "database.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
