// Package cachecmd exposes cache maintenance as go-command handlers so the
// scheduler, the file watcher and the CLI share one execution path.
package cachecmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-writeups/internal/commands"
	"github.com/goliatone/go-writeups/internal/logging"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

const (
	sweepOperation   = "cache.sweep"
	purgeOperation   = "cache.purge"
	prewarmOperation = "cache.prewarm"
)

// ErrPrewarmUnavailable is returned when no Prewarmer was wired.
var ErrPrewarmUnavailable = errors.New("cache command: prewarm unavailable")

// Caches is the maintenance surface of a cache group.
type Caches interface {
	Sweep() map[string]int
	Purge()
}

// Prewarmer rebuilds the listing and reports how many writeups it holds.
type Prewarmer interface {
	Prewarm(ctx context.Context) (int, error)
}

var (
	_ command.Commander[SweepCachesCommand]    = (*SweepHandler)(nil)
	_ command.Commander[PurgeCachesCommand]    = (*PurgeHandler)(nil)
	_ command.Commander[PrewarmListingCommand] = (*PrewarmHandler)(nil)
)

type SweepHandler struct {
	inner *commands.Handler[SweepCachesCommand]
}

func NewSweepHandler(caches Caches, logger interfaces.Logger, opts ...commands.HandlerOption[SweepCachesCommand]) *SweepHandler {
	if logger == nil {
		logger = logging.NoOp()
	}
	exec := func(ctx context.Context, msg SweepCachesCommand) error {
		counts := caches.Sweep()
		total := 0
		for _, n := range counts {
			total += n
		}
		logging.WithFields(logger, map[string]any{
			"reason": msg.Reason,
			"swept":  total,
			"layers": counts,
		}).Debug("cache.command.sweep.completed")
		return nil
	}
	handlerOpts := []commands.HandlerOption[SweepCachesCommand]{
		commands.WithLogger[SweepCachesCommand](logger),
		commands.WithOperation[SweepCachesCommand](sweepOperation),
		commands.WithMessageFields(func(msg SweepCachesCommand) map[string]any {
			return map[string]any{"reason": msg.Reason}
		}),
	}
	return &SweepHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

func (h *SweepHandler) Execute(ctx context.Context, msg SweepCachesCommand) error {
	return h.inner.Execute(ctx, msg)
}

type PurgeHandler struct {
	inner *commands.Handler[PurgeCachesCommand]
}

func NewPurgeHandler(caches Caches, logger interfaces.Logger, opts ...commands.HandlerOption[PurgeCachesCommand]) *PurgeHandler {
	if logger == nil {
		logger = logging.NoOp()
	}
	exec := func(ctx context.Context, msg PurgeCachesCommand) error {
		caches.Purge()
		return nil
	}
	handlerOpts := []commands.HandlerOption[PurgeCachesCommand]{
		commands.WithLogger[PurgeCachesCommand](logger),
		commands.WithOperation[PurgeCachesCommand](purgeOperation),
		commands.WithMessageFields(func(msg PurgeCachesCommand) map[string]any {
			fields := map[string]any{"reason": msg.Reason}
			if len(msg.Paths) > 0 {
				fields["paths"] = msg.Paths
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[PurgeCachesCommand](logger)),
	}
	return &PurgeHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

func (h *PurgeHandler) Execute(ctx context.Context, msg PurgeCachesCommand) error {
	return h.inner.Execute(ctx, msg)
}

type PrewarmHandler struct {
	inner *commands.Handler[PrewarmListingCommand]
}

func NewPrewarmHandler(target Prewarmer, logger interfaces.Logger, opts ...commands.HandlerOption[PrewarmListingCommand]) *PrewarmHandler {
	if logger == nil {
		logger = logging.NoOp()
	}
	exec := func(ctx context.Context, msg PrewarmListingCommand) error {
		if target == nil {
			return ErrPrewarmUnavailable
		}
		count, err := target.Prewarm(ctx)
		if err != nil {
			return err
		}
		logging.WithFields(logger, map[string]any{
			"reason":   msg.Reason,
			"writeups": count,
		}).Info("cache.command.prewarm.completed")
		return nil
	}
	handlerOpts := []commands.HandlerOption[PrewarmListingCommand]{
		commands.WithLogger[PrewarmListingCommand](logger),
		commands.WithOperation[PrewarmListingCommand](prewarmOperation),
		commands.WithMessageFields(func(msg PrewarmListingCommand) map[string]any {
			return map[string]any{"reason": msg.Reason}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[PrewarmListingCommand](logger)),
	}
	return &PrewarmHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

func (h *PrewarmHandler) Execute(ctx context.Context, msg PrewarmListingCommand) error {
	return h.inner.Execute(ctx, msg)
}
