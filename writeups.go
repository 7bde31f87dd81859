// Package writeups serves a tree of CTF writeups (markdown plus images) as
// a cached JSON API.
package writeups

import (
	"context"
	"net/http"
	"sync"

	cachecmd "github.com/goliatone/go-writeups/internal/commands/cache"
	"github.com/goliatone/go-writeups/internal/di"
	"github.com/goliatone/go-writeups/internal/logging"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

type (
	Writeup         = interfaces.Writeup
	RenderedWriteup = interfaces.RenderedWriteup
	TagCount        = interfaces.TagCount
	ListQuery       = interfaces.ListQuery
	WriteupService  = interfaces.WriteupService
)

// Option overrides container wiring.
type Option = di.Option

func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return di.WithLoggerProvider(provider)
}

func WithClock(clock interfaces.Clock) Option {
	return di.WithClock(clock)
}

func WithRenderer(renderer interfaces.MarkdownRenderer) Option {
	return di.WithRenderer(renderer)
}

// Module represents the top level writeups runtime.
type Module struct {
	container *di.Container
	logger    interfaces.Logger
}

// New constructs a module from cfg. The config is validated first.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{
		container: container,
		logger:    logging.ModuleLogger(container.LoggerProvider(), "module"),
	}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

func (m *Module) Writeups() WriteupService {
	return m.container.WriteupService()
}

// Handler returns the HTTP API with middleware applied.
func (m *Module) Handler() (http.Handler, error) {
	return m.container.API().Handler()
}

// Purge drops every cached listing, detail and encoded response.
func (m *Module) Purge(ctx context.Context) error {
	return m.container.CacheCommands().Purge.Execute(ctx, cachecmd.PurgeCachesCommand{Reason: cachecmd.ReasonManual})
}

// Sweep drops expired cache entries.
func (m *Module) Sweep(ctx context.Context) error {
	return m.container.CacheCommands().Sweep.Execute(ctx, cachecmd.SweepCachesCommand{Reason: cachecmd.ReasonManual})
}

// Start launches background maintenance: the cron scheduler when a sweep
// schedule is configured and the content watcher when enabled. With prewarm
// on, the listing is rebuilt before Start returns. The returned func stops
// everything and waits for it to exit.
func (m *Module) Start(ctx context.Context) (func(), error) {
	c := m.container
	watcher, err := c.NewWatcher()
	if err != nil {
		return nil, err
	}

	if c.Config.Cache.Prewarm {
		msg := cachecmd.PrewarmListingCommand{Reason: cachecmd.ReasonStartup}
		if err := c.CacheCommands().Prewarm.Execute(ctx, msg); err != nil {
			m.logger.WithContext(ctx).Warn("module.prewarm.failed", "error", err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	if watcher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watcher.Run(runCtx); err != nil {
				m.logger.Error("module.watch.stopped", "error", err)
			}
		}()
	}
	scheduler := c.Scheduler()
	if scheduler != nil {
		scheduler.Start()
	}
	m.logger.Info("module.started", "watch", watcher != nil, "scheduler", scheduler != nil)

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			if scheduler != nil {
				scheduler.Stop()
			}
			wg.Wait()
			m.logger.Info("module.stopped")
		})
	}, nil
}
