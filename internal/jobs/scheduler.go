package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	cron "github.com/robfig/cron"

	"github.com/goliatone/go-writeups/internal/logging"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

// Job is a unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

var ErrEmptySchedule = errors.New("jobs: schedule is empty")

// Scheduler runs jobs on cron schedules. A job still running when its next
// tick fires is skipped rather than stacked.
type Scheduler struct {
	cron    *cron.Cron
	logger  interfaces.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	running mapset.Set[string]
	stopped bool
	wg      sync.WaitGroup
}

func NewScheduler(logger interfaces.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NoOp()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		running: mapset.NewThreadUnsafeSet[string](),
	}
}

// Add registers job under schedule, e.g. "@every 10m" or a six field cron expression.
func (s *Scheduler) Add(schedule string, job Job) error {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return ErrEmptySchedule
	}
	if job == nil {
		return errors.New("jobs: job is nil")
	}
	return s.cron.AddFunc(schedule, func() { s.RunNow(job) })
}

// RunNow executes job synchronously unless it is already running or the
// scheduler has been stopped. It reports whether the job ran.
func (s *Scheduler) RunNow(job Job) bool {
	name := job.Name()
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.logger.Debug("jobs.scheduler.skipped", "job", name, "reason", "stopped")
		return false
	}
	if s.running.Contains(name) {
		s.mu.Unlock()
		s.logger.Warn("jobs.scheduler.skipped", "job", name, "reason", "already running")
		return false
	}
	s.running.Add(name)
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running.Remove(name)
		s.mu.Unlock()
		s.wg.Done()
	}()

	if err := job.Run(s.ctx); err != nil {
		s.logger.Error("jobs.scheduler.failed", "job", name, "error", err)
		return true
	}
	s.logger.Debug("jobs.scheduler.completed", "job", name)
	return true
}

func (s *Scheduler) Start() {
	s.logger.Info("jobs.scheduler.started", "entries", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop halts the cron loop, cancels running jobs and waits for them.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cron.Stop()
	s.cancel()
	s.wg.Wait()
	s.logger.Info("jobs.scheduler.stopped")
}
