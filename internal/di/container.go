package di

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-writeups/internal/assets"
	"github.com/goliatone/go-writeups/internal/cache"
	"github.com/goliatone/go-writeups/internal/commands"
	cachecmd "github.com/goliatone/go-writeups/internal/commands/cache"
	apihttp "github.com/goliatone/go-writeups/internal/http"
	"github.com/goliatone/go-writeups/internal/jobs"
	"github.com/goliatone/go-writeups/internal/logging"
	"github.com/goliatone/go-writeups/internal/logging/console"
	"github.com/goliatone/go-writeups/internal/logging/gologger"
	"github.com/goliatone/go-writeups/internal/markdown"
	"github.com/goliatone/go-writeups/internal/runtimeconfig"
	"github.com/goliatone/go-writeups/internal/watch"
	"github.com/goliatone/go-writeups/internal/writeups"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

const (
	writeupsCacheName  = "writeups"
	responsesCacheName = "responses"
)

// Container wires module dependencies from a validated runtime config.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger
	clock          interfaces.Clock

	renderer interfaces.MarkdownRenderer
	service  *writeups.Service
	assets   *assets.Resolver
	api      *apihttp.API

	caches   *cache.Group
	registry cachecmd.CommandRegistry
	commands *cachecmd.HandlerSet
	stats    *commands.RunStats

	recorder  jobs.RunRecorder
	worker    *jobs.Worker
	scheduler *jobs.Scheduler
}

// Option mutates the container before services are built.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected by Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

func WithClock(clock interfaces.Clock) Option {
	return func(c *Container) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithRenderer replaces the tiered markdown renderer.
func WithRenderer(renderer interfaces.MarkdownRenderer) Option {
	return func(c *Container) {
		if renderer != nil {
			c.renderer = renderer
		}
	}
}

// WithCommandRegistry registers the cache command handlers with a host bus.
func WithCommandRegistry(reg cachecmd.CommandRegistry) Option {
	return func(c *Container) {
		c.registry = reg
	}
}

func WithRunRecorder(recorder jobs.RunRecorder) Option {
	return func(c *Container) {
		if recorder != nil {
			c.recorder = recorder
		}
	}
}

func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config: cfg,
		clock:  time.Now,
		stats:  commands.NewRunStats(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogging(); err != nil {
		return nil, err
	}
	c.configureContent()
	c.configureHTTP()
	if err := c.configureMaintenance(); err != nil {
		return nil, err
	}

	c.logger.Info("container.configured",
		"content_dir", cfg.ContentDir,
		"base_path", cfg.HTTP.BasePath,
		"caches", c.caches.Names(),
		"sweep_schedule", cfg.Cache.SweepSchedule,
		"prewarm", cfg.Cache.Prewarm,
		"watch", cfg.Watch.Enabled,
	)
	return c, nil
}

func (c *Container) configureLogging() error {
	if c.loggerProvider == nil {
		provider, err := NewLoggerProvider(c.Config.Logging)
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, "container")
	return nil
}

func (c *Container) configureContent() {
	if c.renderer == nil {
		c.renderer = markdown.NewRenderer(
			markdown.WithRendererLogger(logging.MarkdownLogger(c.loggerProvider)),
		)
	}
	c.service = writeups.NewService(writeups.Config{
		ContentDir:    c.Config.ContentDir,
		ListTTL:       c.Config.Cache.ListTTL,
		DetailTTL:     c.Config.Cache.DetailTTL,
		AssetBasePath: apihttp.AssetPrefix(c.Config.HTTP.BasePath),
	},
		writeups.WithClock(c.clock),
		writeups.WithLoggerProvider(c.loggerProvider),
		writeups.WithRenderer(c.renderer),
	)
	c.assets = assets.NewResolver(c.Config.ContentDir,
		assets.WithLogger(logging.AssetsLogger(c.loggerProvider)),
	)
}

func (c *Container) configureHTTP() {
	httpCfg := c.Config.HTTP
	c.api = apihttp.NewAPI(
		apihttp.WithBasePath(httpCfg.BasePath),
		apihttp.WithWriteupService(c.service),
		apihttp.WithAssets(c.assets),
		apihttp.WithCacheControl(httpCfg.ListCacheControl, httpCfg.AssetCacheControl),
		apihttp.WithResponseTTL(c.Config.Cache.ResponseTTL),
		apihttp.WithCORSOrigins(httpCfg.CORSOrigins...),
		apihttp.WithSite(apihttp.Site{
			BaseURL:     c.Config.Site.BaseURL,
			StaticPaths: c.Config.Site.StaticPaths,
		}),
		apihttp.WithLogger(logging.HTTPLogger(c.loggerProvider)),
		apihttp.WithClock(c.clock),
		apihttp.WithMaintenanceReport(func() any { return c.stats.Snapshot() }),
	)
}

func (c *Container) configureMaintenance() error {
	c.caches = cache.NewGroup()
	c.caches.Register(writeupsCacheName, c.service)
	c.caches.Register(responsesCacheName, c.api.ResponseCache())

	set, err := cachecmd.RegisterCacheCommands(c.registry, c.caches, c.service, c.loggerProvider,
		cachecmd.WithRunStats(c.stats),
	)
	if err != nil {
		return fmt.Errorf("di: register cache commands: %w", err)
	}
	c.commands = set

	if c.recorder == nil {
		c.recorder = jobs.NewInMemoryRunRecorder(0)
	}
	workerOpts := []jobs.Option{
		jobs.WithRunRecorder(c.recorder),
		jobs.WithLogger(logging.JobsLogger(c.loggerProvider)),
		jobs.WithClock(c.clock),
	}
	if c.Config.Cache.Prewarm {
		workerOpts = append(workerOpts, jobs.WithPrewarm(set.Prewarm))
	}
	c.worker = jobs.NewWorker(set.Sweep, workerOpts...)

	schedule := strings.TrimSpace(c.Config.Cache.SweepSchedule)
	if schedule == "" {
		return nil
	}
	c.scheduler = jobs.NewScheduler(logging.JobsLogger(c.loggerProvider))
	if err := c.scheduler.Add(schedule, c.worker); err != nil {
		return fmt.Errorf("di: schedule %s %q: %w", jobs.MaintenanceJobName, schedule, err)
	}
	return nil
}

// NewLoggerProvider builds the provider named by cfg.Provider.
func NewLoggerProvider(cfg runtimeconfig.LoggingConfig) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "console":
		level, ok := console.ParseLevel(cfg.Level)
		if !ok && strings.TrimSpace(cfg.Level) != "" {
			return nil, fmt.Errorf("%w: %s", runtimeconfig.ErrLoggingLevelInvalid, cfg.Level)
		}
		return console.NewProvider(console.Options{MinLevel: level}), nil
	case "gologger":
		return gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
	default:
		return nil, fmt.Errorf("%w: %s", runtimeconfig.ErrLoggingProviderUnknown, cfg.Provider)
	}
}

// NewWatcher returns a content watcher bound to the purge handler, or nil
// when watching is disabled. Each call opens a new fsnotify handle that is
// released when Run returns.
func (c *Container) NewWatcher() (*watch.Watcher, error) {
	if !c.Config.Watch.Enabled {
		return nil, nil
	}
	return watch.New(c.Config.ContentDir, c.commands.Purge,
		watch.WithDebounce(c.Config.Watch.Debounce),
		watch.WithLogger(logging.WatchLogger(c.loggerProvider)),
	)
}

func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

func (c *Container) Renderer() interfaces.MarkdownRenderer {
	return c.renderer
}

func (c *Container) WriteupService() *writeups.Service {
	return c.service
}

func (c *Container) Assets() *assets.Resolver {
	return c.assets
}

func (c *Container) API() *apihttp.API {
	return c.api
}

// Caches exposes the maintenance group (service plus response caches).
func (c *Container) Caches() *cache.Group {
	return c.caches
}

func (c *Container) CacheCommands() *cachecmd.HandlerSet {
	return c.commands
}

// CommandStats holds per-command counters for maintenance runs.
func (c *Container) CommandStats() *commands.RunStats {
	return c.stats
}

func (c *Container) Worker() *jobs.Worker {
	return c.worker
}

// Scheduler is nil when no sweep schedule is configured.
func (c *Container) Scheduler() *jobs.Scheduler {
	return c.scheduler
}

func (c *Container) RunRecorder() jobs.RunRecorder {
	return c.recorder
}
