package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type testMessage struct{}

func (testMessage) Type() string { return "writeups.test.message" }

func (testMessage) Validate() error { return nil }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "writeups.test.invalid" }

func (invalidMessage) Validate() error {
	return validationError()
}

func validationError() error {
	return errors.New("invalid")
}

func TestHandlerExecuteSuccess(t *testing.T) {
	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	called := false
	h := NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error {
		called = true
		return nil
	})

	err := h.Execute(context.Background(), invalidMessage{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	execErr := errors.New("boom")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return execErr
	})

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected wrapped execution error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !goerrors.HasCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category to propagate, got %v", err)
	}
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return nil
		}
	}, WithTimeout[testMessage](10*time.Millisecond))

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for timeout, got %v", err)
	}
}

func TestHandlerTelemetryReceivesFieldsAndStatus(t *testing.T) {
	var got TelemetryInfo
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return errors.New("boom")
	},
		WithOperation[testMessage]("cache.sweep"),
		WithMessageFields(func(testMessage) map[string]any {
			return map[string]any{"reason": "manual"}
		}),
		WithTelemetry(func(_ context.Context, _ testMessage, info TelemetryInfo) {
			got = info
		}),
	)

	if err := h.Execute(context.Background(), testMessage{}); err == nil {
		t.Fatal("expected error")
	}
	if got.Status != TelemetryStatusFailed {
		t.Fatalf("expected failed status, got %q", got.Status)
	}
	if got.Command != "writeups.test.message" || got.Operation != "cache.sweep" {
		t.Fatalf("unexpected telemetry %+v", got)
	}
	if got.Fields["reason"] != "manual" || got.Fields["operation"] != "cache.sweep" {
		t.Fatalf("unexpected fields %v", got.Fields)
	}
	if !goerrors.IsCategory(got.Error, goerrors.CategoryCommand) {
		t.Fatalf("expected wrapped error in telemetry, got %v", got.Error)
	}
}

func TestHandlerTimeoutReportsContextStatus(t *testing.T) {
	var status TelemetryStatus
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		<-ctx.Done()
		return ctx.Err()
	},
		WithTimeout[testMessage](5*time.Millisecond),
		WithTelemetry(func(_ context.Context, _ testMessage, info TelemetryInfo) {
			status = info.Status
		}),
	)

	err := h.Execute(context.Background(), testMessage{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if status != TelemetryStatusContextError {
		t.Fatalf("expected context error status, got %q", status)
	}
}

func TestHandlerTagsFailuresWithMaintenanceCodes(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return errors.New("disk gone")
	}, WithOperation[testMessage]("cache.purge"))

	err := h.Execute(context.Background(), testMessage{})
	var tagged *goerrors.Error
	if !goerrors.As(err, &tagged) {
		t.Fatalf("expected go-errors error, got %T", err)
	}
	if tagged.TextCode != TextCodeFailed {
		t.Fatalf("expected %s, got %s", TextCodeFailed, tagged.TextCode)
	}
	if tagged.Metadata["command"] != "writeups.test.message" || tagged.Metadata["operation"] != "cache.purge" {
		t.Fatalf("unexpected metadata %v", tagged.Metadata)
	}

	invalid := NewHandler[invalidMessage](func(context.Context, invalidMessage) error { return nil })
	if err := invalid.Execute(context.Background(), invalidMessage{}); !goerrors.As(err, &tagged) || tagged.TextCode != TextCodeMessageInvalid {
		t.Fatalf("expected %s, got %v", TextCodeMessageInvalid, err)
	}
}

func TestHandlerRecordsRunStats(t *testing.T) {
	stats := NewRunStats()
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	fail := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		if fail {
			return errors.New("boom")
		}
		return nil
	},
		WithRunStats[testMessage](stats),
		WithClock[testMessage](func() time.Time { return clock }),
		WithMessageFields(func(testMessage) map[string]any {
			return map[string]any{"reason": "watch"}
		}),
	)

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	fail = true
	if err := h.Execute(context.Background(), testMessage{}); err == nil {
		t.Fatal("expected failure")
	}

	got := stats.Snapshot()["writeups.test.message"]
	if got.Runs != 2 || got.Failures != 1 {
		t.Fatalf("unexpected counters %+v", got)
	}
	if got.LastStatus != TelemetryStatusFailed || got.LastReason != "watch" || !got.LastFinished.Equal(clock) {
		t.Fatalf("unexpected last run %+v", got)
	}
}
