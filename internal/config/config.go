package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/sheet-snapshot/internal/report"
)

// Config holds all application configuration
type Config struct {
	BaseDir  string         `mapstructure:"base_dir"`
	Server   ServerConfig   `mapstructure:"server"`
	Reports  ReportsConfig  `mapstructure:"reports"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ReportsConfig holds the two report sources
type ReportsConfig struct {
	Ledger ReportConfig `mapstructure:"ledger"`
	Blocos ReportConfig `mapstructure:"blocos"`
}

// ReportConfig locates one source spreadsheet and its snapshot file.
// Relative paths are resolved against BaseDir.
type ReportConfig struct {
	Source   string `mapstructure:"source"`
	Output   string `mapstructure:"output"`
	StartRow int    `mapstructure:"start_row"`
}

// ScheduleConfig holds the refresh schedule
type ScheduleConfig struct {
	Cron       string `mapstructure:"cron"`
	Timezone   string `mapstructure:"timezone"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

// DatabaseConfig holds run history database configuration
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file in the working directory, and the environment. An empty
// configPath skips the file.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SNAPSHOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.BaseDir == "" {
		cfg.BaseDir = executableDir()
	}
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	// Report defaults, relative to base_dir
	v.SetDefault("reports.ledger.source", "CRED E DEB.xlsx")
	v.SetDefault("reports.ledger.output", "output.json")
	v.SetDefault("reports.ledger.start_row", report.DefaultLedgerStartRow)
	v.SetDefault("reports.blocos.source", "BLOCOS.xlsx")
	v.SetDefault("reports.blocos.output", "responses.json")
	v.SetDefault("reports.blocos.start_row", report.DefaultBlocosStartRow)

	// Every hour from 07:30 to 17:30
	v.SetDefault("schedule.cron", "30 7-17 * * *")
	v.SetDefault("schedule.timezone", "America/Sao_Paulo")
	v.SetDefault("schedule.run_on_start", false)

	v.SetDefault("database.enabled", true)
	v.SetDefault("database.path", "data/snapshot_runs.db")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds the unprefixed variables operators already use
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("server.port", "SNAPSHOT_SERVER_PORT", "PORT")
	_ = v.BindEnv("base_dir", "SNAPSHOT_BASE_DIR")
	_ = v.BindEnv("logger.level", "SNAPSHOT_LOGGER_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("schedule.timezone", "SNAPSHOT_SCHEDULE_TIMEZONE", "TZ_SCHEDULE")
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

func (c *Config) resolvePaths() {
	c.Reports.Ledger.Source = c.resolve(c.Reports.Ledger.Source)
	c.Reports.Ledger.Output = c.resolve(c.Reports.Ledger.Output)
	c.Reports.Blocos.Source = c.resolve(c.Reports.Blocos.Source)
	c.Reports.Blocos.Output = c.resolve(c.Reports.Blocos.Output)
	c.Database.Path = c.resolve(c.Database.Path)
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// Location returns the schedule time zone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Schedule.Timezone)
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	for name, r := range map[string]ReportConfig{
		report.NameLedger: c.Reports.Ledger,
		report.NameBlocos: c.Reports.Blocos,
	} {
		if r.Source == "" {
			return fmt.Errorf("reports.%s.source is required", name)
		}
		if r.Output == "" {
			return fmt.Errorf("reports.%s.output is required", name)
		}
		if r.StartRow < 1 {
			return fmt.Errorf("reports.%s.start_row must be at least 1", name)
		}
	}

	if c.Schedule.Cron == "" {
		return fmt.Errorf("schedule.cron is required")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}

	if c.Database.Enabled && c.Database.Path == "" {
		return fmt.Errorf("database.path is required when database is enabled")
	}
	return nil
}
