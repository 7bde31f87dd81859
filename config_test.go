package writeups_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-writeups"
)

func TestConfigDefaultsAreValid(t *testing.T) {
	if err := writeups.DefaultConfig().Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
}

func TestConfigValidatePrewarmRequiresSchedule(t *testing.T) {
	cfg := writeups.DefaultConfig()
	cfg.Cache.Prewarm = true
	cfg.Cache.SweepSchedule = ""
	if err := cfg.Validate(); !errors.Is(err, writeups.ErrSweepScheduleRequired) {
		t.Fatalf("expected ErrSweepScheduleRequired, got %v", err)
	}
}

func TestConfigValidateBasePath(t *testing.T) {
	cfg := writeups.DefaultConfig()
	cfg.HTTP.BasePath = "api"
	if err := cfg.Validate(); !errors.Is(err, writeups.ErrBasePathInvalid) {
		t.Fatalf("expected ErrBasePathInvalid, got %v", err)
	}
}

func TestConfigValidateLoggingProvider(t *testing.T) {
	cfg := writeups.DefaultConfig()
	cfg.Logging.Provider = "syslog"
	if err := cfg.Validate(); !errors.Is(err, writeups.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}
