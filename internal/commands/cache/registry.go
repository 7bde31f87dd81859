package cachecmd

import (
	"errors"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"

	"github.com/goliatone/go-writeups/internal/commands"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract used when wiring
// handlers into a host's command bus.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the handlers built by RegisterCacheCommands.
type HandlerSet struct {
	Sweep   *SweepHandler
	Purge   *PurgeHandler
	Prewarm *PrewarmHandler
}

type Option func(*options)

type options struct {
	sweepOpts   []commands.HandlerOption[SweepCachesCommand]
	purgeOpts   []commands.HandlerOption[PurgeCachesCommand]
	prewarmOpts []commands.HandlerOption[PrewarmListingCommand]
}

func WithSweepHandlerOptions(opts ...commands.HandlerOption[SweepCachesCommand]) Option {
	return func(cfg *options) { cfg.sweepOpts = append(cfg.sweepOpts, opts...) }
}

func WithPurgeHandlerOptions(opts ...commands.HandlerOption[PurgeCachesCommand]) Option {
	return func(cfg *options) { cfg.purgeOpts = append(cfg.purgeOpts, opts...) }
}

func WithPrewarmHandlerOptions(opts ...commands.HandlerOption[PrewarmListingCommand]) Option {
	return func(cfg *options) { cfg.prewarmOpts = append(cfg.prewarmOpts, opts...) }
}

// WithRunStats records every maintenance run into stats.
func WithRunStats(stats *commands.RunStats) Option {
	return func(cfg *options) {
		cfg.sweepOpts = append(cfg.sweepOpts, commands.WithRunStats[SweepCachesCommand](stats))
		cfg.purgeOpts = append(cfg.purgeOpts, commands.WithRunStats[PurgeCachesCommand](stats))
		cfg.prewarmOpts = append(cfg.prewarmOpts, commands.WithRunStats[PrewarmListingCommand](stats))
	}
}

// RegisterCacheCommands builds the maintenance handlers and registers them
// with reg when one is supplied.
func RegisterCacheCommands(reg CommandRegistry, caches Caches, prewarmer Prewarmer, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if caches == nil {
		return nil, errors.New("cache command registration: caches is nil")
	}
	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "cache")
	set := &HandlerSet{
		Sweep:   NewSweepHandler(caches, logger, cfg.sweepOpts...),
		Purge:   NewPurgeHandler(caches, logger, cfg.purgeOpts...),
		Prewarm: NewPrewarmHandler(prewarmer, logger, cfg.prewarmOpts...),
	}
	if reg != nil {
		for _, handler := range []any{set.Sweep, set.Purge, set.Prewarm} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

// Subscribe attaches the handlers to the process-wide command dispatcher so
// maintenance can be triggered with dispatcher.Dispatch. Failed executions
// are retried up to maxRetries times. The returned func detaches them.
func (s *HandlerSet) Subscribe(maxRetries int) func() {
	if s == nil {
		return func() {}
	}
	subs := []interface{ Unsubscribe() }{
		dispatcher.SubscribeCommand[SweepCachesCommand](s.Sweep, runner.WithMaxRetries(maxRetries)),
		dispatcher.SubscribeCommand[PurgeCachesCommand](s.Purge, runner.WithMaxRetries(maxRetries)),
		dispatcher.SubscribeCommand[PrewarmListingCommand](s.Prewarm, runner.WithMaxRetries(maxRetries)),
	}
	return func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}
}
