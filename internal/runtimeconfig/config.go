package runtimeconfig

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var ErrContentDirRequired = errors.New("writeups config: content directory is required")
var ErrCacheTTLInvalid = errors.New("writeups config: cache ttl must be positive")

// ErrSweepScheduleRequired guards the cron worker from registering an empty schedule.
var ErrSweepScheduleRequired = errors.New("writeups config: cache sweep schedule is required when prewarm is enabled")
var ErrHTTPAddrRequired = errors.New("writeups config: http address is required")
var ErrBasePathInvalid = errors.New("writeups config: http base path must start with /")
var ErrSiteBaseURLInvalid = errors.New("writeups config: site base url must be absolute")
var ErrWatchDebounceInvalid = errors.New("writeups config: watch debounce must be positive")
var ErrLoggingProviderRequired = errors.New("writeups config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("writeups config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("writeups config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("writeups config: logging format is invalid")

// Config aggregates every runtime knob of the writeups service. Field tags
// follow the keys accepted in writeups.yaml and WRITEUPS_* variables.
type Config struct {
	ContentDir string        `mapstructure:"content_dir"`
	Cache      CacheConfig   `mapstructure:"cache"`
	HTTP       HTTPConfig    `mapstructure:"http"`
	Site       SiteConfig    `mapstructure:"site"`
	Watch      WatchConfig   `mapstructure:"watch"`
	Logging    LoggingConfig `mapstructure:"logging"`
}

// CacheConfig holds the three independent TTLs plus the maintenance job.
type CacheConfig struct {
	ListTTL       time.Duration `mapstructure:"list_ttl"`
	DetailTTL     time.Duration `mapstructure:"detail_ttl"`
	ResponseTTL   time.Duration `mapstructure:"response_ttl"`
	SweepSchedule string        `mapstructure:"sweep_schedule"`
	Prewarm       bool          `mapstructure:"prewarm"`
}

type HTTPConfig struct {
	Addr              string        `mapstructure:"addr"`
	BasePath          string        `mapstructure:"base_path"`
	ListCacheControl  string        `mapstructure:"list_cache_control"`
	AssetCacheControl string        `mapstructure:"asset_cache_control"`
	CORSOrigins       []string      `mapstructure:"cors_origins"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// SiteConfig feeds the sitemap. An empty BaseURL yields root-relative locations.
type SiteConfig struct {
	BaseURL     string   `mapstructure:"base_url"`
	StaticPaths []string `mapstructure:"static_paths"`
}

type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `mapstructure:"provider"`
	Level     string   `mapstructure:"level"`
	Format    string   `mapstructure:"format"`
	AddSource bool     `mapstructure:"add_source"`
	Focus     []string `mapstructure:"focus"`
}

func DefaultConfig() Config {
	return Config{
		ContentDir: "_writeups",
		Cache: CacheConfig{
			ListTTL:       5 * time.Minute,
			DetailTTL:     30 * time.Minute,
			ResponseTTL:   10 * time.Minute,
			SweepSchedule: "@every 10m",
		},
		HTTP: HTTPConfig{
			Addr:              ":8080",
			BasePath:          "/api",
			ListCacheControl:  "public, s-maxage=3600, stale-while-revalidate=86400",
			AssetCacheControl: "public, max-age=3600",
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Site: SiteConfig{
			StaticPaths: []string{"/", "/about", "/achievements", "/writeups"},
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.ContentDir) == "" {
		return ErrContentDirRequired
	}
	for name, ttl := range map[string]time.Duration{
		"list":     cfg.Cache.ListTTL,
		"detail":   cfg.Cache.DetailTTL,
		"response": cfg.Cache.ResponseTTL,
	} {
		if ttl <= 0 {
			return fmt.Errorf("%w: %s", ErrCacheTTLInvalid, name)
		}
	}
	if cfg.Cache.Prewarm && strings.TrimSpace(cfg.Cache.SweepSchedule) == "" {
		return ErrSweepScheduleRequired
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		return ErrHTTPAddrRequired
	}
	if base := cfg.HTTP.BasePath; base != "" && !strings.HasPrefix(base, "/") {
		return fmt.Errorf("%w: %s", ErrBasePathInvalid, base)
	}
	if raw := strings.TrimSpace(cfg.Site.BaseURL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s", ErrSiteBaseURLInvalid, raw)
		}
	}
	if cfg.Watch.Enabled && cfg.Watch.Debounce <= 0 {
		return ErrWatchDebounceInvalid
	}

	provider := normalize(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := normalize(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := normalize(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch format {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
