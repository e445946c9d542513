// Package container wires configuration into the snapshot pipelines, the
// scheduler and the HTTP server, and owns their lifecycle.
package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/sheet-snapshot/internal/config"
	httpapi "github.com/garyjia/sheet-snapshot/internal/interfaces/http"
	"github.com/garyjia/sheet-snapshot/internal/models"
	"github.com/garyjia/sheet-snapshot/internal/report"
	"github.com/garyjia/sheet-snapshot/internal/repository"
	"github.com/garyjia/sheet-snapshot/internal/scheduler"
	"github.com/garyjia/sheet-snapshot/internal/snapshot"
	"github.com/garyjia/sheet-snapshot/internal/spreadsheet"
	"github.com/garyjia/sheet-snapshot/internal/worker"
	"github.com/garyjia/sheet-snapshot/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are built in dependency order and torn down in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	db   *database.DB
	runs *repository.RunRepository

	refreshers []snapshot.Refresher
	scheduler  *scheduler.Scheduler
	server     *httpapi.Server
	workers    *worker.Manager

	mu      sync.Mutex
	started atomic.Bool
	closed  atomic.Bool
}

// New builds every component from configuration. Nothing runs until Start.
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	c := &Container{config: cfg, logger: logger}

	if err := c.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := c.initPipelines(); err != nil {
		c.closeDatabase()
		return nil, fmt.Errorf("failed to initialize pipelines: %w", err)
	}
	c.initServer()

	c.workers = worker.NewManager(logger)
	c.workers.Register(c.scheduler)
	c.workers.Register(c.server)

	return c, nil
}

func (c *Container) initDatabase() error {
	if !c.config.Database.Enabled {
		c.logger.Info("Run history disabled")
		return nil
	}

	db, err := database.New(database.Config{
		Path:         c.config.Database.Path,
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	}, c.logger)
	if err != nil {
		return err
	}
	if err := database.NewMigrator(db, c.logger).RunMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	c.db = db
	c.runs = repository.NewRunRepository(db.DB, c.logger)
	return nil
}

func (c *Container) initPipelines() error {
	loc, err := c.config.Location()
	if err != nil {
		return err
	}

	reader := spreadsheet.NewExcelReader(c.logger)
	publisher := snapshot.NewPublisher(c.logger)

	ledgerCfg := c.config.Reports.Ledger
	blocosCfg := c.config.Reports.Blocos
	c.refreshers = []snapshot.Refresher{
		snapshot.NewPipeline(report.Ledger(ledgerCfg.Source, ledgerCfg.Output, ledgerCfg.StartRow), reader, publisher, c.logger),
		snapshot.NewPipeline(report.Blocos(blocosCfg.Source, blocosCfg.Output, blocosCfg.StartRow), reader, publisher, c.logger),
	}

	c.scheduler = scheduler.New(scheduler.Config{
		Cron:       c.config.Schedule.Cron,
		Location:   loc,
		RunOnStart: c.config.Schedule.RunOnStart,
	}, c.logger)

	var recorder scheduler.RunRecorder
	if c.runs != nil {
		recorder = c.runs
	}
	for _, r := range c.refreshers {
		c.scheduler.Add(scheduler.NewJob(r, recorder, c.logger))
	}
	return nil
}

// endpointPaths maps report names to their public read paths.
var endpointPaths = map[string]string{
	report.NameLedger: "/creddeb",
	report.NameBlocos: "/blocos",
}

func (c *Container) initServer() {
	endpoints := make([]httpapi.Endpoint, 0, len(c.refreshers))
	for _, r := range c.refreshers {
		endpoints = append(endpoints, httpapi.Endpoint{Path: endpointPaths[r.Name()], Report: r.Info()})
	}

	var runs httpapi.RunLister
	if c.runs != nil {
		runs = c.runs
	}

	sugar := c.logger.Sugar()
	c.server = httpapi.NewServer(httpapi.ServerConfig{
		Host:            c.config.Server.Host,
		Port:            c.config.Server.Port,
		ReadTimeout:     c.config.Server.ReadTimeout,
		WriteTimeout:    c.config.Server.WriteTimeout,
		ShutdownTimeout: c.config.Server.ShutdownTimeout,
		Debug:           c.config.Logger.Level == "debug",
	}, endpoints, httpapi.NewHandlers(runs, c.scheduler, sugar), sugar)
}

// Start starts the scheduler and the HTTP server
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.started.Load() {
		return fmt.Errorf("container already started")
	}

	if err := c.workers.StartAll(ctx); err != nil {
		return err
	}
	c.started.Store(true)
	c.logger.Info("Container started",
		zap.String("addr", c.server.Address()),
		zap.String("cron", c.config.Schedule.Cron),
		zap.String("timezone", c.config.Schedule.Timezone))
	return nil
}

// ServerErrors delivers fatal HTTP server errors
func (c *Container) ServerErrors() <-chan error {
	return c.server.Err()
}

// Refresh runs the named reports once, sequentially, outside the schedule.
// No names means every report.
func (c *Container) Refresh(ctx context.Context, names ...string) ([]*snapshot.RunResult, error) {
	jobs := c.scheduler.Jobs()
	if len(names) > 0 {
		jobs = jobs[:0:0]
		for _, name := range names {
			job := c.scheduler.Job(name)
			if job == nil {
				return nil, fmt.Errorf("unknown report %q", name)
			}
			jobs = append(jobs, job)
		}
	}

	var results []*snapshot.RunResult
	var firstErr error
	for _, job := range jobs {
		result, err := job.Run(ctx, models.RunTriggerManual)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", job.Name(), err)
			}
			continue
		}
		results = append(results, result)
	}
	return results, firstErr
}

// Runs returns the run history repository, or nil when disabled
func (c *Container) Runs() *repository.RunRepository {
	return c.runs
}

// Close stops workers and closes the database
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("container already closed")
	}

	var err error
	if c.started.Load() {
		err = c.workers.StopAll()
	}
	c.closeDatabase()

	c.logger.Info("Container closed")
	return err
}

func (c *Container) closeDatabase() {
	if c.db == nil {
		return
	}
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
	}
}
