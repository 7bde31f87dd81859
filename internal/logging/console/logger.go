// Package console is a dependency-free logfmt-style provider used by the CLI
// subcommands and tests, where go-logger's JSON output is noise.
package console

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-writeups/internal/logging"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "INFO"
}

// ParseLevel maps a config level name onto a Level. Unknown names resolve to
// LevelInfo and report false.
func ParseLevel(name string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "info", "":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "fatal":
		return LevelFatal, true
	}
	return LevelInfo, false
}

// Options configures the provider. Zero values write to stderr at LevelInfo
// using the wall clock.
type Options struct {
	Writer   io.Writer
	Clock    interfaces.Clock
	MinLevel Level
}

type sink struct {
	mu    sync.Mutex
	w     io.Writer
	clock interfaces.Clock
	min   Level
}

// NewProvider returns a provider whose loggers share a single writer.
func NewProvider(opts Options) interfaces.LoggerProvider {
	s := &sink{w: opts.Writer, clock: opts.Clock, min: opts.MinLevel}
	if s.w == nil {
		s.w = os.Stderr
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

func (s *sink) GetLogger(name string) interfaces.Logger {
	return &entryLogger{sink: s, fields: map[string]any{"logger": name}}
}

func (s *sink) write(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// best effort
	_, _ = io.WriteString(s.w, line+"\n")
}

type entryLogger struct {
	sink   *sink
	fields map[string]any
	ctx    context.Context
}

var (
	_ interfaces.Logger       = (*entryLogger)(nil)
	_ interfaces.FieldsLogger = (*entryLogger)(nil)
)

func (l *entryLogger) Trace(msg string, args ...any) { l.emit(LevelTrace, msg, args) }
func (l *entryLogger) Debug(msg string, args ...any) { l.emit(LevelDebug, msg, args) }
func (l *entryLogger) Info(msg string, args ...any)  { l.emit(LevelInfo, msg, args) }
func (l *entryLogger) Warn(msg string, args ...any)  { l.emit(LevelWarn, msg, args) }
func (l *entryLogger) Error(msg string, args ...any) { l.emit(LevelError, msg, args) }
func (l *entryLogger) Fatal(msg string, args ...any) { l.emit(LevelFatal, msg, args) }

func (l *entryLogger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	merged := maps.Clone(l.fields)
	maps.Copy(merged, fields)
	return &entryLogger{sink: l.sink, fields: merged, ctx: l.ctx}
}

func (l *entryLogger) WithContext(ctx context.Context) interfaces.Logger {
	return &entryLogger{sink: l.sink, fields: l.fields, ctx: ctx}
}

func (l *entryLogger) emit(level Level, msg string, args []any) {
	if l.sink == nil || level < l.sink.min {
		return
	}
	fields := maps.Clone(l.fields)
	if fields == nil {
		fields = map[string]any{}
	}
	maps.Copy(fields, logging.ContextFields(l.ctx))
	pairFields(fields, args)
	l.sink.write(formatLine(l.sink.clock().UTC(), level, msg, fields))
}

// pairFields folds key/value args into dst. A dangling or non-string key is
// stored under its argument position so nothing is dropped.
func pairFields(dst map[string]any, args []any) {
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			dst["arg_"+strconv.Itoa(i)] = args[i]
			return
		}
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = "arg_" + strconv.Itoa(i)
		}
		dst[key] = args[i+1]
	}
}

func formatLine(ts time.Time, level Level, msg string, fields map[string]any) string {
	var b strings.Builder
	b.WriteString(ts.Format(time.RFC3339Nano))
	b.WriteByte(' ')
	b.WriteString(level.String())
	b.WriteByte(' ')
	b.WriteString(msg)
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(formatValue(fields[key]))
	}
	return b.String()
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return quote(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case time.Duration:
		return v.String()
	case error:
		return quote(v.Error())
	case fmt.Stringer:
		return quote(v.String())
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return quote(fmt.Sprint(v))
	}
}

func quote(value string) string {
	if value == "" {
		return `""`
	}
	if strings.ContainsFunc(value, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(value)
	}
	return value
}
