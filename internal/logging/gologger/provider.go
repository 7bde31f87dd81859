package gologger

import (
	"context"
	"fmt"
	"maps"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-writeups/internal/logging"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

// Config mirrors runtimeconfig.LoggingConfig for the go-logger backend.
type Config struct {
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// Provider hands out go-logger children keyed by writeups module name.
type Provider struct {
	root *glog.BaseLogger
}

var _ interfaces.LoggerProvider = (*Provider)(nil)

func NewProvider(cfg Config) (*Provider, error) {
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}
	root := glog.NewLogger(opts...)
	if focus := trimmed(cfg.Focus); len(focus) > 0 {
		root.Focus(focus...)
	}
	return &Provider{root: root}, nil
}

func options(cfg Config) ([]glog.Option, error) {
	var opts []glog.Option
	if level, ok := levels[strings.ToLower(strings.TrimSpace(cfg.Level))]; ok {
		opts = append(opts, glog.WithLevel(level))
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "json":
		opts = append(opts, glog.WithLoggerTypeJSON())
	case "console":
		opts = append(opts, glog.WithLoggerTypeConsole())
	case "pretty":
		opts = append(opts, glog.WithLoggerTypePretty())
	default:
		return nil, fmt.Errorf("gologger: unsupported format %q", cfg.Format)
	}
	if cfg.AddSource {
		opts = append(opts, glog.WithAddSource(true))
	}
	return opts, nil
}

var levels = map[string]string{
	"trace":   glog.Trace,
	"debug":   glog.Debug,
	"info":    glog.Info,
	"warn":    glog.Warn,
	"warning": glog.Warn,
	"error":   glog.Error,
	"fatal":   glog.Fatal,
}

func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil || p.root == nil {
		return logging.NoOp()
	}
	if name = strings.TrimSpace(name); name == "" {
		return adapt(p.root)
	}
	return adapt(p.root.GetLogger(name))
}

func adapt(inner glog.Logger) interfaces.Logger {
	if inner == nil {
		return logging.NoOp()
	}
	return &adapter{inner: inner}
}

type adapter struct {
	inner glog.Logger
}

func (a *adapter) Trace(msg string, args ...any) { a.inner.Trace(msg, args...) }
func (a *adapter) Debug(msg string, args ...any) { a.inner.Debug(msg, args...) }
func (a *adapter) Info(msg string, args ...any)  { a.inner.Info(msg, args...) }
func (a *adapter) Warn(msg string, args ...any)  { a.inner.Warn(msg, args...) }
func (a *adapter) Error(msg string, args ...any) { a.inner.Error(msg, args...) }
func (a *adapter) Fatal(msg string, args ...any) { a.inner.Fatal(msg, args...) }

// WithFields is a no-op when the underlying logger cannot carry fields.
func (a *adapter) WithFields(fields map[string]any) interfaces.Logger {
	fl, ok := a.inner.(glog.FieldsLogger)
	if !ok || len(fields) == 0 {
		return a
	}
	return adapt(fl.WithFields(maps.Clone(fields)))
}

// WithContext forwards ctx and promotes request fields stored via
// logging.ContextWithFields, which go-logger does not know about.
func (a *adapter) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return a
	}
	next := adapt(a.inner.WithContext(ctx))
	if fields := logging.ContextFields(ctx); len(fields) > 0 {
		return logging.WithFields(next, fields)
	}
	return next
}

func trimmed(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}
