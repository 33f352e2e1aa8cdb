// Package engine combines layer outputs into buy, sell and risk scores.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"signalDesk/internal/domain"
	"signalDesk/internal/layers"
	"signalDesk/internal/ports"
)

// DefaultLayerTimeout bounds a single layer. Layers are CPU-only so this only trips on a bug.
const DefaultLayerTimeout = 2 * time.Second

// Request is one analysis call.
type Request struct {
	Ticker       string
	Mode         domain.Mode
	Market       domain.MarketData
	Fundamentals *domain.FundamentalData
	Position     *domain.UserPosition
}

// Engine runs the layer registry and derives the composite result. Safe for concurrent use.
type Engine struct {
	layers       []layers.Layer
	logger       ports.Logger
	signals      ports.SignalLogger
	layerTimeout time.Duration
	now          func() time.Time
	newID        func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLayers replaces the default registry. Order is preserved.
func WithLayers(ls ...layers.Layer) Option {
	return func(e *Engine) { e.layers = ls }
}

// WithSignalLogger hands every result to sl after analysis.
func WithSignalLogger(sl ports.SignalLogger) Option {
	return func(e *Engine) { e.signals = sl }
}

// WithLayerTimeout sets the per-analysis layer deadline.
func WithLayerTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.layerTimeout = d
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine over the default layer registry.
func New(logger ports.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	e := &Engine{
		layers:       layers.Registry(),
		logger:       logger,
		layerTimeout: DefaultLayerTimeout,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze never fails: faulty layers are neutralised and an empty layer set yields midpoints.
func (e *Engine) Analyze(ctx context.Context, req Request) *domain.AnalysisResult {
	cfg := domain.GetModeConfig(req.Mode)
	ticker := domain.NormalizeTicker(req.Ticker)
	in := layers.Input{
		Ticker:       ticker,
		Mode:         cfg.Mode,
		Market:       req.Market,
		Fundamentals: req.Fundamentals,
		Position:     req.Position,
	}

	var applicable []layers.Layer
	for _, l := range e.layers {
		if l.IsApplicable(cfg.Mode) {
			applicable = append(applicable, l)
		}
	}
	outputs := e.runLayers(ctx, in, applicable)

	buy := weightedScore(outputs, cfg.Weights, buyContribution)
	sell := weightedScore(outputs, cfg.Weights, sellContribution)
	risk := riskScore(outputs, cfg.Weights, req.Market.AssetType)

	result := &domain.AnalysisResult{
		ID:           e.newID(),
		Ticker:       ticker,
		AssetType:    req.Market.AssetType,
		Mode:         cfg.Mode,
		Timestamp:    e.now().UTC(),
		BuyScore:     buy,
		SellScore:    sell,
		RiskScore:    risk,
		CurrentPrice: req.Market.CurrentPrice,
		LayerOutputs: outputs,
	}
	result.MarketRegime = regime(outputs, buy, sell)
	result.Explanation = explain(ticker, cfg.Mode, result.MarketRegime, outputs, buy, sell)
	result.SuggestedAction = suggestAction(cfg, req.Position, req.Market.CurrentPrice, buy, sell, risk)
	result.KeyFactors = keyFactors(outputs)
	result.LayerBreakdown = breakdown(outputs)

	e.logger.Debug(ctx, "Analysis complete", map[string]interface{}{
		"ticker": ticker, "mode": cfg.Mode, "buy": buy, "sell": sell, "risk": risk,
	})
	if ctx.Err() != nil {
		// Layer outputs may be placeholders; keep them out of the signal history.
		e.logger.Warn(ctx, "Analysis canceled; signal not logged", map[string]interface{}{"ticker": ticker})
		return result
	}
	e.submit(ctx, cfg, result)
	return result
}

// submit hands a copy of the result to the signal logger without waiting on it.
func (e *Engine) submit(ctx context.Context, cfg domain.ModeConfig, result *domain.AnalysisResult) {
	if e.signals == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn(ctx, "Signal logger panicked", map[string]interface{}{"panic": fmt.Sprint(r)})
		}
	}()
	rec := ports.SignalRecord{Result: result.Clone(), Timeframes: cfg.Timeframes, Weights: cfg.Weights}
	if err := e.signals.Log(ctx, rec); err != nil {
		e.logger.Warn(ctx, "Signal log submission failed", map[string]interface{}{
			"ticker": result.Ticker, "error": err.Error(),
		})
	}
}

// runLayers executes the layers concurrently. Each goroutine owns one buffered channel, so a
// layer that misses the deadline can finish later without touching shared state.
func (e *Engine) runLayers(ctx context.Context, in layers.Input, ls []layers.Layer) []domain.LayerOutput {
	names := make([]domain.LayerName, len(ls))
	results := make([]chan domain.LayerOutput, len(ls))
	for i, l := range ls {
		ch := make(chan domain.LayerOutput, 1)
		names[i] = l.Name()
		results[i] = ch
		go func(l layers.Layer) {
			ch <- e.safeAnalyze(ctx, l, in)
		}(l)
	}
	return e.collect(ctx, names, results)
}

// collect joins the layer channels in order under the layer deadline.
func (e *Engine) collect(ctx context.Context, names []domain.LayerName, results []chan domain.LayerOutput) []domain.LayerOutput {
	deadline := time.NewTimer(e.layerTimeout)
	defer deadline.Stop()
	expired := false

	outputs := make([]domain.LayerOutput, len(results))
	for i, ch := range results {
		if expired {
			select {
			case out := <-ch:
				outputs[i] = out
			default:
				outputs[i] = e.layerFault(ctx, names[i], "timed out")
			}
			continue
		}
		// A finished layer wins over a deadline or cancellation that fired in the meantime.
		select {
		case out := <-ch:
			outputs[i] = out
			continue
		default:
		}
		select {
		case out := <-ch:
			outputs[i] = out
		case <-deadline.C:
			expired = true
			outputs[i] = e.layerFault(ctx, names[i], "timed out")
		case <-ctx.Done():
			expired = true
			outputs[i] = e.layerFault(ctx, names[i], "canceled")
		}
	}
	return outputs
}

func (e *Engine) safeAnalyze(ctx context.Context, l layers.Layer, in layers.Input) (out domain.LayerOutput) {
	name := l.Name()
	defer func() {
		if r := recover(); r != nil {
			out = e.layerFault(ctx, name, fmt.Sprintf("panicked: %v", r))
		}
	}()

	res, err := l.Analyze(ctx, in)
	if err != nil {
		return e.layerFault(ctx, name, err.Error())
	}
	return domain.NewLayerOutput(name, res.Score, res.Flags, res.Note, res.Metadata)
}

func (e *Engine) layerFault(ctx context.Context, name domain.LayerName, reason string) domain.LayerOutput {
	e.logger.Warn(ctx, "Layer failed; using neutral output", map[string]interface{}{
		"layer": name, "reason": reason,
	})
	return domain.NeutralOutput(name, domain.FlagLayerError, fmt.Sprintf("Layer %s failed (%s).", name, reason))
}
