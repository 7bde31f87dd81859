package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-writeups/pkg/interfaces"
)

const (
	rootModule     = "writeups"
	scannerModule  = "writeups.scanner"
	markdownModule = "writeups.markdown"
	cacheModule    = "writeups.cache"
	assetsModule   = "writeups.assets"
	queryModule    = "writeups.query"
	httpModule     = "writeups.http"
	jobsModule     = "writeups.jobs"
	watchModule    = "writeups.watch"
)

const (
	fieldWriteupID = "writeup_id"
	fieldPath      = "path"
)

// ModuleLogger returns a logger scoped to module. A nil provider, or one that
// hands back nil, yields the no-op logger.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if strings.TrimSpace(module) == "" {
		module = rootModule
	}
	var logger interfaces.Logger = NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}
	return WithFields(logger, map[string]any{"module": module})
}

func ScannerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, scannerModule)
}

func MarkdownLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markdownModule)
}

func CacheLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, cacheModule)
}

func AssetsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, assetsModule)
}

func QueryLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, queryModule)
}

func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

func JobsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, jobsModule)
}

func WatchLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, watchModule)
}

// WithWriteup tags entries with the writeup id and, when known, the source
// path. Empty values are skipped.
func WithWriteup(logger interfaces.Logger, id, path string) interfaces.Logger {
	fields := map[string]any{}
	if v := strings.TrimSpace(id); v != "" {
		fields[fieldWriteupID] = v
	}
	if v := strings.TrimSpace(path); v != "" {
		fields[fieldPath] = v
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that discards every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var (
	_ interfaces.Logger       = noopLogger{}
	_ interfaces.FieldsLogger = noopLogger{}
)

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger { return n }
func (n noopLogger) WithContext(context.Context) interfaces.Logger { return n }
