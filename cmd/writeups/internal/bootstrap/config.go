package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/goliatone/go-writeups"
	"github.com/goliatone/go-writeups/internal/runtimeconfig"
)

const (
	EnvPrefix         = "WRITEUPS"
	DefaultConfigName = "writeups"
	defaultEnvFile    = ".env"
)

// Options captures how the CLI locates its configuration.
type Options struct {
	// ConfigFile is an explicit path. When empty, writeups.yaml is looked up
	// in the working directory and a missing file is not an error.
	ConfigFile string
	// EnvFiles are loaded into the process environment before viper reads
	// it. Existing variables win. When empty, ./.env is loaded if present.
	EnvFiles []string
	// Overrides are viper keys set from command line flags.
	Overrides map[string]any
}

// LoadConfig merges defaults, the config file, WRITEUPS_* variables and
// flag overrides (in increasing precedence) and validates the result.
func LoadConfig(opts Options) (runtimeconfig.Config, error) {
	if err := loadEnvFiles(opts.EnvFiles); err != nil {
		return runtimeconfig.Config{}, err
	}

	v := viper.New()
	setDefaults(v, runtimeconfig.DefaultConfig())

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || opts.ConfigFile != "" {
			return runtimeconfig.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg runtimeconfig.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return runtimeconfig.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return runtimeconfig.Config{}, err
	}
	return cfg, nil
}

// BuildModule loads configuration and constructs the writeups module.
func BuildModule(opts Options, moduleOpts ...writeups.Option) (*writeups.Module, runtimeconfig.Config, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, runtimeconfig.Config{}, err
	}
	module, err := writeups.New(cfg, moduleOpts...)
	if err != nil {
		return nil, runtimeconfig.Config{}, fmt.Errorf("initialise writeups module: %w", err)
	}
	return module, cfg, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(defaultEnvFile); err != nil {
			return nil
		}
		files = []string{defaultEnvFile}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during
// Unmarshal.
func setDefaults(v *viper.Viper, cfg runtimeconfig.Config) {
	v.SetDefault("content_dir", cfg.ContentDir)

	v.SetDefault("cache.list_ttl", cfg.Cache.ListTTL)
	v.SetDefault("cache.detail_ttl", cfg.Cache.DetailTTL)
	v.SetDefault("cache.response_ttl", cfg.Cache.ResponseTTL)
	v.SetDefault("cache.sweep_schedule", cfg.Cache.SweepSchedule)
	v.SetDefault("cache.prewarm", cfg.Cache.Prewarm)

	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("http.base_path", cfg.HTTP.BasePath)
	v.SetDefault("http.list_cache_control", cfg.HTTP.ListCacheControl)
	v.SetDefault("http.asset_cache_control", cfg.HTTP.AssetCacheControl)
	v.SetDefault("http.cors_origins", cfg.HTTP.CORSOrigins)
	v.SetDefault("http.read_timeout", cfg.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", cfg.HTTP.WriteTimeout)
	v.SetDefault("http.shutdown_timeout", cfg.HTTP.ShutdownTimeout)

	v.SetDefault("site.base_url", cfg.Site.BaseURL)
	v.SetDefault("site.static_paths", cfg.Site.StaticPaths)

	v.SetDefault("watch.enabled", cfg.Watch.Enabled)
	v.SetDefault("watch.debounce", cfg.Watch.Debounce)

	v.SetDefault("logging.provider", cfg.Logging.Provider)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.add_source", cfg.Logging.AddSource)
	v.SetDefault("logging.focus", cfg.Logging.Focus)
}
