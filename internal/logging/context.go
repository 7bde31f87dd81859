package logging

import (
	"context"
	"maps"
)

type contextKey struct{}

var fieldsKey contextKey

// ContextWithFields returns a child context carrying structured fields that
// loggers merge into every entry written with that context. Fields already
// on ctx are kept; new keys win on conflict.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}
	merged := ContextFields(ctx)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return context.WithValue(ctx, fieldsKey, merged)
}

// ContextFields returns a copy of the fields attached to ctx, or nil.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, ok := ctx.Value(fieldsKey).(map[string]any)
	if !ok || len(fields) == 0 {
		return nil
	}
	return maps.Clone(fields)
}
