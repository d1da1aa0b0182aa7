// Package scheduler runs the background jobs: recurring jobs on a fixed
// interval and daily jobs at a wall-clock time. Jobs fire in registration
// order and in isolation; one failing job never blocks the others and never
// brings the loop down.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vthunder/kernel/internal/config"
	"github.com/vthunder/kernel/internal/logging"
)

// DefaultTick is how often the scheduler wakes to look for due jobs. It
// must divide a minute so daily jobs cannot skip their matching minute.
const DefaultTick = 30 * time.Second

// Job is one registered background task. Exactly one of Interval or
// DailyAt must be set; the trigger is read at registration time and is not
// re-evaluated mid-run.
type Job struct {
	Name     string
	Interval time.Duration // recurring trigger
	DailyAt  string        // "HH:MM" wall-clock trigger, local time
	Run      func(ctx context.Context) error

	lastFired    time.Time
	lastDailyKey string // "2006-01-02 15:04" of the last daily firing
}

// Scheduler drives the registered jobs from a single ticker goroutine
type Scheduler struct {
	settings *config.Store
	tick     time.Duration
	now      func() time.Time

	mu       sync.Mutex
	jobs     []*Job
	stopChan chan struct{}
	stopped  bool
}

// New creates a scheduler. settings is re-read before every firing pass so
// edits take effect without a restart.
func New(settings *config.Store) *Scheduler {
	return &Scheduler{
		settings: settings,
		tick:     DefaultTick,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Add registers a job. Jobs fire in the order they were added.
func (s *Scheduler) Add(job *Job) error {
	if job.Name == "" {
		return fmt.Errorf("job name is required")
	}
	if job.Run == nil {
		return fmt.Errorf("job %s has no Run function", job.Name)
	}
	if (job.Interval > 0) == (job.DailyAt != "") {
		return fmt.Errorf("job %s must set exactly one of Interval or DailyAt", job.Name)
	}
	if job.DailyAt != "" {
		if _, err := time.Parse("15:04", job.DailyAt); err != nil {
			return fmt.Errorf("job %s: bad DailyAt %q: %w", job.Name, job.DailyAt, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	if job.Interval > 0 {
		logging.Info("scheduler", "Registered %s (every %v)", job.Name, job.Interval)
	} else {
		logging.Info("scheduler", "Registered %s (daily at %s)", job.Name, job.DailyAt)
	}
	return nil
}

// Start launches the tick loop
func (s *Scheduler) Start() {
	go s.loop()
	logging.Info("scheduler", "Started (tick %v)", s.tick)
}

// Stop halts the tick loop. In-flight jobs finish on their own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.stopChan)
	logging.Info("scheduler", "Stopped")
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.runDue(context.Background(), s.now())
		}
	}
}

// runDue reloads settings and fires every due job, each in isolation
func (s *Scheduler) runDue(ctx context.Context, now time.Time) {
	s.settings.Reload()

	s.mu.Lock()
	jobs := make([]*Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	for _, job := range jobs {
		if !s.due(job, now) {
			continue
		}
		s.fire(ctx, job, now)
	}
}

func (s *Scheduler) due(job *Job, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job.Interval > 0 {
		return job.lastFired.IsZero() || !now.Before(job.lastFired.Add(job.Interval))
	}

	// Daily jobs fire once per matching wall-clock minute
	if now.Format("15:04") != job.DailyAt {
		return false
	}
	key := now.Format("2006-01-02 15:04")
	return job.lastDailyKey != key
}

// fire runs one job with panic isolation. Failures are logged and do not
// affect subsequent or future firings.
func (s *Scheduler) fire(ctx context.Context, job *Job, now time.Time) {
	s.mu.Lock()
	job.lastFired = now
	if job.DailyAt != "" {
		job.lastDailyKey = now.Format("2006-01-02 15:04")
	}
	s.mu.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			logging.Warn("scheduler", "job %s panicked: %v", job.Name, rec)
		}
	}()

	logging.Debug("scheduler", "Firing %s", job.Name)
	if err := job.Run(ctx); err != nil {
		logging.Warn("scheduler", "job %s failed: %v", job.Name, err)
	}
}
