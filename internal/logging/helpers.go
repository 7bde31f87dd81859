package logging

import (
	"maps"

	"github.com/goliatone/go-writeups/pkg/interfaces"
)

// WithFields attaches fields when the logger supports FieldsLogger and
// returns it unchanged otherwise.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fl, ok := logger.(interfaces.FieldsLogger); ok {
		return fl.WithFields(maps.Clone(fields))
	}
	return logger
}
