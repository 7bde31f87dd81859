package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes for maintenance command failures. Errors that already carry a
// go-errors category keep their own.
const (
	TextCodeMessageInvalid = "MAINTENANCE_MESSAGE_INVALID"
	TextCodeCanceled       = "MAINTENANCE_CANCELED"
	TextCodeTimedOut       = "MAINTENANCE_TIMED_OUT"
	TextCodeFailed         = "MAINTENANCE_FAILED"
)

// outcome tags a finished execution. runErr is what the command func
// returned and ctxErr the state of its context afterwards.
func outcome(runErr, ctxErr error, meta map[string]any) (TelemetryStatus, error) {
	switch {
	case runErr == nil && ctxErr == nil:
		return TelemetryStatusSuccess, nil
	case runErr == nil:
		return TelemetryStatusContextError, contextError(ctxErr, meta)
	case ctxErr != nil || isContextError(runErr):
		return TelemetryStatusContextError, contextError(runErr, meta)
	default:
		return TelemetryStatusFailed, failedError(runErr, meta)
	}
}

func invalidMessageError(err error, meta map[string]any) error {
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "maintenance message rejected").
		WithTextCode(TextCodeMessageInvalid).
		WithMetadata(meta)
}

func contextError(err error, meta map[string]any) error {
	if goerrors.IsWrapped(err) {
		return err
	}
	code, message := TextCodeCanceled, "maintenance run cancelled"
	if errors.Is(err, context.DeadlineExceeded) {
		code, message = TextCodeTimedOut, "maintenance run timed out"
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, message).
		WithTextCode(code).
		WithSeverity(goerrors.SeverityWarning).
		WithMetadata(meta)
}

func failedError(err error, meta map[string]any) error {
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "maintenance run failed").
		WithTextCode(TextCodeFailed).
		WithSeverity(goerrors.SeverityError).
		WithMetadata(meta)
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
