package jobs

import (
	"context"
	"errors"
	"time"

	command "github.com/goliatone/go-command"

	cachecmd "github.com/goliatone/go-writeups/internal/commands/cache"
	"github.com/goliatone/go-writeups/internal/logging"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

const (
	MaintenanceJobName = "cache-maintenance"

	StepSweep   = "sweep"
	StepPrewarm = "prewarm"
)

// Worker runs cache maintenance: a sweep of stale entries and, optionally,
// a rebuild of the listing so the next request is warm.
type Worker struct {
	sweep    command.Commander[cachecmd.SweepCachesCommand]
	prewarm  command.Commander[cachecmd.PrewarmListingCommand]
	recorder RunRecorder
	logger   interfaces.Logger
	now      func() time.Time
	reason   string
}

type Option func(*Worker)

func WithRunRecorder(recorder RunRecorder) Option {
	return func(w *Worker) {
		w.recorder = recorder
	}
}

// WithPrewarm enables the prewarm step.
func WithPrewarm(handler command.Commander[cachecmd.PrewarmListingCommand]) Option {
	return func(w *Worker) {
		w.prewarm = handler
	}
}

func WithClock(clock func() time.Time) Option {
	return func(w *Worker) {
		if clock != nil {
			w.now = clock
		}
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithReason overrides the reason attached to dispatched commands.
func WithReason(reason string) Option {
	return func(w *Worker) {
		if reason != "" {
			w.reason = reason
		}
	}
}

func NewWorker(sweep command.Commander[cachecmd.SweepCachesCommand], opts ...Option) *Worker {
	w := &Worker{
		sweep:  sweep,
		logger: logging.NoOp(),
		now:    time.Now,
		reason: cachecmd.ReasonSchedule,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Worker) Name() string { return MaintenanceJobName }

// Run satisfies Job.
func (w *Worker) Run(ctx context.Context) error { return w.Process(ctx) }

// Process runs one maintenance pass. A failing step does not stop the
// others; their errors are joined.
func (w *Worker) Process(ctx context.Context) error {
	if w.sweep == nil {
		return errors.New("jobs: sweep handler is nil")
	}
	var errs []error
	errs = append(errs, w.step(ctx, StepSweep, func(ctx context.Context) error {
		return w.sweep.Execute(ctx, cachecmd.SweepCachesCommand{Reason: w.reason})
	}))
	if w.prewarm != nil {
		errs = append(errs, w.step(ctx, StepPrewarm, func(ctx context.Context) error {
			return w.prewarm.Execute(ctx, cachecmd.PrewarmListingCommand{Reason: w.reason})
		}))
	} else {
		w.record(ctx, RunEvent{Step: StepPrewarm, Status: RunSkipped, OccurredAt: w.now()})
	}
	return errors.Join(errs...)
}

func (w *Worker) step(ctx context.Context, name string, fn func(context.Context) error) error {
	started := w.now()
	err := fn(ctx)
	event := RunEvent{
		Step:       name,
		Status:     RunSucceeded,
		OccurredAt: started,
		Duration:   w.now().Sub(started),
		Metadata:   map[string]any{"reason": w.reason},
	}
	if err != nil {
		event.Status = RunFailed
		event.Error = err.Error()
		w.logger.WithContext(ctx).Warn("jobs.maintenance.step_failed", "step", name, "error", err)
	}
	w.record(ctx, event)
	return err
}

func (w *Worker) record(ctx context.Context, event RunEvent) {
	if w.recorder == nil {
		return
	}
	event.Job = MaintenanceJobName
	if err := w.recorder.Record(ctx, event); err != nil {
		w.logger.WithContext(ctx).Warn("jobs.maintenance.record_failed", "step", event.Step, "error", err)
	}
}
