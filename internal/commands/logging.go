package commands

import (
	"strings"

	"github.com/goliatone/go-writeups/internal/logging"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

const maintenanceModule = "writeups.maintenance"

// CommandLogger returns the logger for one family of maintenance commands,
// e.g. "cache".
func CommandLogger(provider interfaces.LoggerProvider, family string) interfaces.Logger {
	name := strings.ToLower(strings.TrimSpace(family))
	if name == "" {
		name = "core"
	}
	return logging.WithFields(logging.ModuleLogger(provider, maintenanceModule+"."+name), map[string]any{
		"component": "maintenance",
		"family":    name,
	})
}

func outcomeLogger(logger interfaces.Logger, info TelemetryInfo) interfaces.Logger {
	fields := map[string]any{
		"status":      string(info.Status),
		"duration_ms": info.Duration.Milliseconds(),
	}
	for key, value := range info.Fields {
		fields[key] = value
	}
	return logging.WithFields(logger, fields)
}
