package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/garyjia/sheet-snapshot/internal/models"
)

// Config holds the refresh schedule
type Config struct {
	// Cron is a five-field cron expression, or six fields with leading seconds
	Cron       string
	Location   *time.Location
	RunOnStart bool
}

// Scheduler fires every registered Job on the same wall-clock schedule.
// Each job runs on its own goroutine so a slow or failing report never
// delays the other.
type Scheduler struct {
	config Config
	jobs   []*Job
	logger *zap.Logger

	mu        sync.RWMutex
	cron      *gocron.Scheduler
	cronJobs  map[string]*gocron.Job
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a new Scheduler
func New(config Config, logger *zap.Logger) *Scheduler {
	if config.Location == nil {
		config.Location = time.Local
	}
	return &Scheduler{
		config:   config,
		logger:   logger,
		cronJobs: make(map[string]*gocron.Job),
	}
}

// Add registers a job. Jobs must be added before Start.
func (s *Scheduler) Add(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
}

// Name returns the worker name for identification
func (s *Scheduler) Name() string {
	return "SnapshotScheduler"
}

// Start schedules every job and returns immediately
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	cron := gocron.NewScheduler(s.config.Location)
	cronJobs := make(map[string]*gocron.Job, len(s.jobs))
	runCtx, cancel := context.WithCancel(ctx)

	for _, job := range s.jobs {
		job := job // per-iteration copy; go.mod targets go 1.21 loop semantics
		cj, err := s.schedule(cron, job.Name()).Do(func() {
			_, _ = job.Run(runCtx, models.RunTriggerSchedule)
		})
		if err != nil {
			cancel()
			return fmt.Errorf("failed to schedule %s with %q: %w", job.Name(), s.config.Cron, err)
		}
		cronJobs[job.Name()] = cj
	}

	s.cron = cron
	s.cronJobs = cronJobs
	s.ctx, s.cancel = runCtx, cancel
	s.isRunning = true

	cron.StartAsync()

	s.logger.Info("Scheduler started",
		zap.String("cron", s.config.Cron),
		zap.String("timezone", s.config.Location.String()),
		zap.Int("jobs", len(s.jobs)))

	if s.config.RunOnStart {
		for _, job := range s.jobs {
			s.wg.Add(1)
			go func(job *Job) {
				defer s.wg.Done()
				_, _ = job.Run(runCtx, models.RunTriggerStartup)
			}(job)
		}
	}
	return nil
}

func (s *Scheduler) schedule(cron *gocron.Scheduler, tag string) *gocron.Scheduler {
	var sched *gocron.Scheduler
	if len(strings.Fields(s.config.Cron)) == 6 {
		sched = cron.CronWithSeconds(s.config.Cron)
	} else {
		sched = cron.Cron(s.config.Cron)
	}
	// Overlap is handled by Job, which skips and records the skipped run.
	return sched.Tag(tag)
}

// Stop stops scheduling new runs. In-flight runs see a cancelled context
// but are not interrupted mid-build.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cron := s.cron
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	cron.Stop()
	s.wg.Wait()

	s.logger.Info("Scheduler stopped")
	return nil
}

// IsRunning reports whether the scheduler is active
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Jobs returns the registered jobs
func (s *Scheduler) Jobs() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Job(nil), s.jobs...)
}

// Job returns the job for a report, or nil
func (s *Scheduler) Job(name string) *Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, job := range s.jobs {
		if job.Name() == name {
			return job
		}
	}
	return nil
}

// Status returns the state of every job including its next scheduled run
func (s *Scheduler) Status() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]JobStatus, 0, len(s.jobs))
	for _, job := range s.jobs {
		status := job.Status()
		if cj, ok := s.cronJobs[job.Name()]; ok && s.isRunning {
			if next := cj.NextRun(); !next.IsZero() {
				status.NextRun = &next
			}
		}
		statuses = append(statuses, status)
	}
	return statuses
}
