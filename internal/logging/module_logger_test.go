package logging

import (
	"context"
	"maps"
	"testing"

	"github.com/goliatone/go-writeups/pkg/interfaces"
)

type recordingLogger struct {
	fields   []map[string]any
	contexts []context.Context
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	r.fields = append(r.fields, maps.Clone(fields))
	return r
}

func (r *recordingLogger) WithContext(ctx context.Context) interfaces.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, "writeups.test")
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	logger = logger.WithContext(context.Background())
	logger = WithFields(logger, map[string]any{"foo": "bar"})
	logger.Debug("noop")
}

func TestModuleLoggerUsesProviderAndAnnotatesFields(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	logger := ModuleLogger(provider, queryModule)

	if len(provider.requested) != 1 || provider.requested[0] != queryModule {
		t.Fatalf("expected module %s, got %v", queryModule, provider.requested)
	}
	if len(rec.fields) != 1 {
		t.Fatalf("expected module fields to be applied once, got %d", len(rec.fields))
	}
	if got := rec.fields[0]["module"]; got != queryModule {
		t.Fatalf("expected module field %s, got %v", queryModule, got)
	}
	logger.Info("with provider")
}

func TestModuleLoggerDefaultsToRootModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = ModuleLogger(provider, "  ")

	if len(provider.requested) != 1 || provider.requested[0] != rootModule {
		t.Fatalf("expected default module %s, got %v", rootModule, provider.requested)
	}
	if rec.fields[0]["module"] != rootModule {
		t.Fatalf("expected module field %s, got %v", rootModule, rec.fields[0]["module"])
	}
}

func TestNamedLoggersRequestTheirModule(t *testing.T) {
	cases := map[string]func(interfaces.LoggerProvider) interfaces.Logger{
		scannerModule:  ScannerLogger,
		markdownModule: MarkdownLogger,
		cacheModule:    CacheLogger,
		assetsModule:   AssetsLogger,
		httpModule:     HTTPLogger,
		jobsModule:     JobsLogger,
		watchModule:    WatchLogger,
	}
	for module, fn := range cases {
		provider := &stubProvider{logger: &recordingLogger{}}
		_ = fn(provider)
		if len(provider.requested) == 0 || provider.requested[0] != module {
			t.Fatalf("expected %s request, got %v", module, provider.requested)
		}
	}
}

func TestWithWriteupSkipsEmptyValues(t *testing.T) {
	rec := &recordingLogger{}
	_ = WithWriteup(rec, "pico/web", "")
	if len(rec.fields) != 1 {
		t.Fatalf("expected one WithFields call, got %d", len(rec.fields))
	}
	if rec.fields[0][fieldWriteupID] != "pico/web" {
		t.Fatalf("expected writeup id field, got %v", rec.fields[0])
	}
	if _, ok := rec.fields[0][fieldPath]; ok {
		t.Fatalf("expected empty path to be skipped, got %v", rec.fields[0])
	}
}

func TestContextFieldsMergeAndCopy(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"request_id": "a"})
	ctx = ContextWithFields(ctx, map[string]any{"route": "list"})

	fields := ContextFields(ctx)
	if fields["request_id"] != "a" || fields["route"] != "list" {
		t.Fatalf("expected merged fields, got %v", fields)
	}
	fields["request_id"] = "mutated"
	if ContextFields(ctx)["request_id"] != "a" {
		t.Fatal("expected ContextFields to return a copy")
	}
	if ContextFields(context.Background()) != nil {
		t.Fatal("expected nil fields on bare context")
	}
}
