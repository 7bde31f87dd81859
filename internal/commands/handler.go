package commands

import (
	"context"
	"maps"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-writeups/internal/logging"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

const defaultHandlerTimeout = 30 * time.Second

// HandlerOption configures a Handler instance.
type HandlerOption[T command.Message] func(*Handler[T])

// Handler wraps command execution with validation, a timeout, logging and
// error tagging.
type Handler[T command.Message] struct {
	exec      command.CommandFunc[T]
	logger    interfaces.Logger
	timeout   time.Duration
	operation string
	fields    func(T) map[string]any
	telemetry Telemetry[T]
	stats     *RunStats
	clock     interfaces.Clock
}

// NewHandler creates a handler that satisfies go-command's Commander interface.
func NewHandler[T command.Message](fn command.CommandFunc[T], opts ...HandlerOption[T]) *Handler[T] {
	if fn == nil {
		panic("commands: handler function cannot be nil")
	}
	h := &Handler[T]{
		exec:    fn,
		logger:  logging.NoOp(),
		timeout: defaultHandlerTimeout,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Execute conforms to command.Commander[T].Execute.
func (h *Handler[T]) Execute(ctx context.Context, msg T) error {
	msgType := command.GetMessageType(msg)
	meta := map[string]any{"command": msgType}
	if h.operation != "" {
		meta["operation"] = h.operation
	}
	if err := command.ValidateMessage(msg); err != nil {
		return invalidMessageError(err, meta)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return contextError(err, meta)
	}

	fields := maps.Clone(meta)
	if h.fields != nil {
		maps.Copy(fields, h.fields(msg))
	}
	logger := logging.WithFields(h.logger, fields).WithContext(ctx)
	logger.Debug("maintenance.run.started")

	started := h.clock()
	status, err := outcome(h.exec(ctx, msg), ctx.Err(), meta)
	finished := h.clock()

	reason, _ := fields["reason"].(string)
	info := TelemetryInfo{
		Command:   msgType,
		Operation: h.operation,
		Reason:    reason,
		Fields:    fields,
		Finished:  finished,
		Duration:  finished.Sub(started),
		Error:     err,
		Status:    status,
		Logger:    logger,
	}
	h.stats.Record(info)
	if h.telemetry != nil {
		h.telemetry(ctx, msg, info)
	} else if err != nil {
		logger.Error("maintenance.run.failed", "error", err)
	} else {
		logger.Debug("maintenance.run.succeeded")
	}
	return err
}

// WithTimeout overrides the default execution timeout. Zero disables it.
func WithTimeout[T command.Message](timeout time.Duration) HandlerOption[T] {
	return func(h *Handler[T]) {
		if timeout <= 0 {
			h.timeout = 0
			return
		}
		h.timeout = timeout
	}
}

// WithLogger injects the logger used during execution.
func WithLogger[T command.Message](logger interfaces.Logger) HandlerOption[T] {
	return func(h *Handler[T]) {
		if logger == nil {
			h.logger = logging.NoOp()
			return
		}
		h.logger = logger
	}
}

// WithOperation sets an operation name emitted with every log entry.
func WithOperation[T command.Message](operation string) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.operation = operation
	}
}

// WithMessageFields derives extra log fields from the message.
func WithMessageFields[T command.Message](fn func(T) map[string]any) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.fields = fn
	}
}

// WithTelemetry installs a callback invoked after every execution.
func WithTelemetry[T command.Message](telemetry Telemetry[T]) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.telemetry = telemetry
	}
}

// WithRunStats records every execution into stats.
func WithRunStats[T command.Message](stats *RunStats) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.stats = stats
	}
}

func WithClock[T command.Message](clock interfaces.Clock) HandlerOption[T] {
	return func(h *Handler[T]) {
		if clock != nil {
			h.clock = clock
		}
	}
}

func (h *Handler[T]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, h.timeout)
}
