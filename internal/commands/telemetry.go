package commands

import (
	"context"
	"maps"
	"sync"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-writeups/internal/logging"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

// TelemetryStatus is the outcome class of one maintenance run.
type TelemetryStatus string

const (
	TelemetryStatusSuccess      TelemetryStatus = "success"
	TelemetryStatusFailed       TelemetryStatus = "failed"
	TelemetryStatusContextError TelemetryStatus = "context_error"
)

// TelemetryInfo describes a finished run. Reason is the trigger carried by
// the message (schedule, watch, manual, startup) when it has one.
type TelemetryInfo struct {
	Command   string
	Operation string
	Reason    string
	Fields    map[string]any
	Finished  time.Time
	Duration  time.Duration
	Error     error
	Status    TelemetryStatus
	Logger    interfaces.Logger
}

// Telemetry is invoked after every execution.
type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

// DefaultTelemetry logs outcomes: success at info, everything else at error.
func DefaultTelemetry[T command.Message](logger interfaces.Logger) Telemetry[T] {
	if logger == nil {
		logger = logging.NoOp()
	}
	return func(ctx context.Context, _ T, info TelemetryInfo) {
		entry := outcomeLogger(logger, info).WithContext(ctx)
		switch info.Status {
		case TelemetryStatusSuccess:
			entry.Info("maintenance.run.succeeded")
		case TelemetryStatusContextError:
			entry.Error("maintenance.run.interrupted", "error", info.Error)
		default:
			entry.Error("maintenance.run.failed", "error", info.Error)
		}
	}
}

// CommandStats summarises the runs of one message type.
type CommandStats struct {
	Runs           int             `json:"runs"`
	Failures       int             `json:"failures"`
	LastStatus     TelemetryStatus `json:"lastStatus"`
	LastReason     string          `json:"lastReason,omitempty"`
	LastDurationMS int64           `json:"lastDurationMs"`
	LastFinished   time.Time       `json:"lastFinished"`
}

// RunStats keeps per-command counters for maintenance runs. It is safe for
// concurrent use.
type RunStats struct {
	mu        sync.Mutex
	byCommand map[string]CommandStats
}

func NewRunStats() *RunStats {
	return &RunStats{byCommand: map[string]CommandStats{}}
}

// Record folds info into the counters of info.Command.
func (s *RunStats) Record(info TelemetryInfo) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.byCommand[info.Command]
	stats.Runs++
	if info.Status != TelemetryStatusSuccess {
		stats.Failures++
	}
	stats.LastStatus = info.Status
	stats.LastReason = info.Reason
	stats.LastDurationMS = info.Duration.Milliseconds()
	stats.LastFinished = info.Finished
	s.byCommand[info.Command] = stats
}

// Snapshot returns a copy keyed by message type.
func (s *RunStats) Snapshot() map[string]CommandStats {
	if s == nil {
		return map[string]CommandStats{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.byCommand)
}
