package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-writeups/internal/logging"
	"github.com/goliatone/go-writeups/pkg/interfaces"
)

const (
	TierFull    = "full"
	TierReduced = "reduced"
	TierRegex   = "regex"
	TierEscape  = "escape"
)

var (
	// ErrRenderFailed is returned only when every strategy failed.
	ErrRenderFailed = errors.New("markdown: all render strategies failed")
	errEmptyOutput  = errors.New("markdown: strategy produced no output")
)

// Output is what a single strategy produces.
type Output struct {
	HTML string
	TOC  []interfaces.Heading
}

// Strategy is one rung of the degradation ladder. Render may return an error
// or panic; both move the renderer on to the next strategy.
type Strategy struct {
	Name   string
	Render func(src []byte) (Output, error)
}

// DefaultStrategies returns the four tiers in the order they are attempted.
func DefaultStrategies() []Strategy {
	return []Strategy{FullStrategy(), ReducedStrategy(), RegexStrategy(), EscapeStrategy()}
}

type RendererOption func(*Renderer)

func WithStrategies(strategies ...Strategy) RendererOption {
	return func(r *Renderer) {
		r.strategies = append([]Strategy(nil), strategies...)
	}
}

func WithRendererLogger(logger interfaces.Logger) RendererOption {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Renderer converts writeup bodies to HTML by trying strategies in order.
// It is safe for concurrent use.
type Renderer struct {
	strategies []Strategy
	logger     interfaces.Logger
}

var _ interfaces.MarkdownRenderer = (*Renderer)(nil)

func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{
		strategies: DefaultStrategies(),
		logger:     logging.NoOp(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render pre-processes body and returns the first successful strategy's
// output. Blank input short-circuits to an empty result.
func (r *Renderer) Render(ctx context.Context, body []byte) (interfaces.RenderResult, error) {
	logger := r.logger.WithContext(ctx)
	src := Preprocess(body)
	if len(bytes.TrimSpace(src)) == 0 {
		logger.Warn("markdown.render_empty")
		return interfaces.RenderResult{}, nil
	}
	for _, strategy := range r.strategies {
		out, err := run(strategy, src)
		if err == nil {
			return interfaces.RenderResult{HTML: out.HTML, TOC: out.TOC, Tier: strategy.Name}, nil
		}
		logger.Warn("markdown.strategy_failed", "tier", strategy.Name, "error", err)
	}
	logger.Error("markdown.render_failed", "tiers", len(r.strategies))
	return interfaces.RenderResult{}, ErrRenderFailed
}

func run(strategy Strategy, src []byte) (out Output, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = Output{}, fmt.Errorf("markdown: %s strategy panicked: %v", strategy.Name, rec)
		}
	}()
	if strategy.Render == nil {
		return Output{}, fmt.Errorf("markdown: %s strategy has no render func", strategy.Name)
	}
	out, err = strategy.Render(src)
	if err == nil && len(bytes.TrimSpace([]byte(out.HTML))) == 0 {
		err = errEmptyOutput
	}
	return out, err
}
