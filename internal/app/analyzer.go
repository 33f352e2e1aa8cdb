// Package app orchestrates providers, the signal engine, the playbook and alerts.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"signalDesk/internal/alert"
	"signalDesk/internal/domain"
	"signalDesk/internal/engine"
	"signalDesk/internal/playbook"
	"signalDesk/internal/ports"
)

const (
	// DefaultProviderTimeout bounds the data fetch of one analysis.
	DefaultProviderTimeout = 10 * time.Second
	// DefaultCandleLimit is enough history for the 60-candle volatility lookback and the 50 MA.
	DefaultCandleLimit = 200
	// maxParallelTickers caps AnalyzeMultiple fan-out so providers are not flooded.
	maxParallelTickers = 4
)

// Report bundles an analysis with its playbook tier and any alert it produced.
type Report struct {
	Analysis *domain.AnalysisResult `json:"analysis"`
	Playbook domain.PlaybookResult  `json:"playbook"`
	Alert    *domain.AlertEvent     `json:"alert,omitempty"`
}

// Analyzer is the entry point used by the HTTP surface, the scheduler and the CLIs.
type Analyzer struct {
	provider    ports.MarketDataProvider
	engine      *engine.Engine
	logger      ports.Logger
	timeout     time.Duration
	candleLimit int
	playbook    playbook.Config
	alerts      *alert.Service
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithProviderTimeout bounds provider calls for one analysis.
func WithProviderTimeout(d time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithCandleLimit sets how many candles are requested.
func WithCandleLimit(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.candleLimit = n
		}
	}
}

// WithPlaybook overrides the default tier thresholds.
func WithPlaybook(cfg playbook.Config) AnalyzerOption {
	return func(a *Analyzer) { a.playbook = cfg }
}

// WithAlerts enables alert evaluation in Evaluate.
func WithAlerts(svc *alert.Service) AnalyzerOption {
	return func(a *Analyzer) { a.alerts = svc }
}

// NewAnalyzer validates dependencies and applies options.
func NewAnalyzer(provider ports.MarketDataProvider, eng *engine.Engine, logger ports.Logger, opts ...AnalyzerOption) (*Analyzer, error) {
	if provider == nil || eng == nil {
		return nil, fmt.Errorf("missing required dependencies for Analyzer: %w", ports.ErrConfigurationError)
	}
	if logger == nil {
		logger = ports.NopLogger{}
	}
	a := &Analyzer{
		provider:    provider,
		engine:      eng,
		logger:      logger,
		timeout:     DefaultProviderTimeout,
		candleLimit: DefaultCandleLimit,
		playbook:    playbook.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// AnalyzeTicker fetches market data for ticker and runs the engine in mode.
// position may be nil; when present it is re-priced at the fetched price.
func (a *Analyzer) AnalyzeTicker(ctx context.Context, ticker string, mode domain.Mode, position *domain.UserPosition) (*domain.AnalysisResult, error) {
	ticker = domain.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("analyze failed: %w: empty ticker", ports.ErrInvalidRequest)
	}
	if _, ok := domain.ParseMode(string(mode)); !ok {
		return nil, fmt.Errorf("analyze failed: %w: %q", ports.ErrUnknownMode, mode)
	}
	cfg := domain.GetModeConfig(mode)
	assetType := a.provider.DetectAssetType(ticker)

	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var (
		quote        domain.PriceQuote
		candles      []domain.Candle
		fundamentals *domain.FundamentalData
	)
	g, gctx := errgroup.WithContext(fetchCtx)
	g.Go(func() error {
		q, err := a.provider.GetCurrentPrice(gctx, ticker)
		if err != nil {
			return fmt.Errorf("price fetch for %s failed: %w: %w", ticker, ports.ErrProviderFailure, err)
		}
		quote = q
		return nil
	})
	g.Go(func() error {
		c, err := a.provider.GetCandles(gctx, ticker, cfg.PrimaryTimeframe(), a.candleLimit)
		if err != nil {
			return fmt.Errorf("candle fetch for %s failed: %w: %w", ticker, ports.ErrProviderFailure, err)
		}
		candles = c
		return nil
	})
	if assetType != domain.AssetCrypto && cfg.Weights.Fundamentals > 0 {
		g.Go(func() error {
			f, err := a.provider.GetFundamentals(gctx, ticker)
			if err != nil {
				// Missing fundamentals only neutralise one layer.
				a.logger.Warn(ctx, "Fundamentals unavailable, continuing without them", map[string]interface{}{
					"ticker": ticker, "provider": a.provider.Name(), "error": err.Error(),
				})
				return nil
			}
			fundamentals = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %w", ports.ErrTimeout, err)
		}
		return nil, err
	}

	var pos *domain.UserPosition
	if position != nil {
		p := position.Recompute(quote.Price)
		pos = &p
	}

	market := domain.MarketData{
		Ticker:           ticker,
		AssetType:        assetType,
		CurrentPrice:     quote.Price,
		Change24h:        quote.Change24h,
		ChangePercent24h: quote.ChangePercent24h,
		Candles:          candles,
		Timeframe:        cfg.PrimaryTimeframe(),
	}
	result := a.engine.Analyze(ctx, engine.Request{
		Ticker:       ticker,
		Mode:         cfg.Mode,
		Market:       market,
		Fundamentals: fundamentals,
		Position:     pos,
	})
	a.logger.Debug(ctx, "Analysis complete", map[string]interface{}{
		"ticker": ticker, "mode": cfg.Mode, "buy": result.BuyScore, "sell": result.SellScore, "risk": result.RiskScore,
	})
	return result, nil
}

// AnalyzeMultiple analyses tickers concurrently. Results keep input order; the first failure
// aborts the batch. positions is keyed by normalised ticker and may be nil.
func (a *Analyzer) AnalyzeMultiple(ctx context.Context, tickers []string, mode domain.Mode, positions map[string]*domain.UserPosition) ([]*domain.AnalysisResult, error) {
	results := make([]*domain.AnalysisResult, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelTickers)
	for i, t := range tickers {
		g.Go(func() error {
			r, err := a.AnalyzeTicker(gctx, t, mode, positions[domain.NormalizeTicker(t)])
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Evaluate analyses ticker, classifies the result and, when alerts are enabled and userID is set,
// runs the alert gate. Alert failures are logged and do not fail the report.
func (a *Analyzer) Evaluate(ctx context.Context, ticker string, mode domain.Mode, userID string, position *domain.UserPosition) (*Report, error) {
	result, err := a.AnalyzeTicker(ctx, ticker, mode, position)
	if err != nil {
		return nil, err
	}
	report := &Report{Analysis: result, Playbook: playbook.Classify(result, a.playbook)}
	if a.alerts == nil || userID == "" {
		return report, nil
	}
	evt, err := a.alerts.Evaluate(ctx, result, userID)
	if err != nil {
		a.logger.Error(ctx, err, "Alert evaluation failed", map[string]interface{}{"ticker": result.Ticker, "user": userID})
		return report, nil
	}
	report.Alert = evt
	return report, nil
}

// Playbook returns the thresholds in use.
func (a *Analyzer) Playbook() playbook.Config {
	return a.playbook
}
