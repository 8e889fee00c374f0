// Package scheduler runs periodic jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/flyerhub/pkg/logger"
)

// Default scheduler configuration constants.
const (
	defaultJobTimeout = 30 * time.Second
)

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

// JobInfo describes a scheduled job.
type JobInfo struct {
	Name    string
	NextRun time.Time
	LastRun time.Time
}

// Scheduler wraps a cron runner with named jobs and per-run timeouts.
type Scheduler struct {
	cron    *cron.Cron
	mu      sync.Mutex
	jobs    map[string]cron.EntryID
	timeout time.Duration
	loc     *time.Location
	logger  logger.Logger
}

// New creates a scheduler. Jobs do not run until Start is called.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		jobs:    make(map[string]cron.EntryID),
		timeout: defaultJobTimeout,
		loc:     time.Local,
		logger:  logger.Get().Named("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cron = cron.New(cron.WithLocation(s.loc))
	return s
}

// AddJob registers job under name with a cron spec such as "@every 1m" or "0 * * * *".
// Adding a name that already exists replaces the previous entry.
func (s *Scheduler) AddJob(name, spec string, job Job) error {
	if name == "" {
		return ErrEmptyJobName
	}
	if job == nil {
		return fmt.Errorf("%w: %s", ErrNilJob, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(spec, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("%w: %s %q: %w", ErrInvalidSchedule, name, spec, err)
	}
	if prev, ok := s.jobs[name]; ok {
		s.cron.Remove(prev)
	}
	s.jobs[name] = id
	s.logger.Info(context.Background(), "job scheduled", logger.String("job", name), logger.String("schedule", spec))
	return nil
}

// RemoveJob unschedules the named job. Unknown names are ignored.
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.jobs[name]; ok {
		s.cron.Remove(id)
		delete(s.jobs, name)
	}
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// RunNow executes job synchronously with the scheduler's timeout.
func (s *Scheduler) RunNow(ctx context.Context, name string, job Job) error {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	s.logger.Debug(runCtx, "running job now", logger.String("job", name))
	return job(runCtx)
}

// Jobs lists the scheduled jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, id := range s.jobs {
		e := s.cron.Entry(id)
		infos = append(infos, JobInfo{Name: name, NextRun: e.Next, LastRun: e.Prev})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		s.logger.Error(ctx, "job failed", logger.String("job", name), logger.Error(err))
		return
	}
	s.logger.Debug(ctx, "job completed", logger.String("job", name), logger.Duration("took", time.Since(start)))
}
