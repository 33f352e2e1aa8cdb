// Package composite routes market data requests to a source per asset class.
package composite

import (
	"context"
	"errors"

	"signalDesk/internal/domain"
	"signalDesk/internal/ports"
)

// Provider sends crypto tickers to the crypto source and everything else to the equity source.
// When a source fails the fallback, if any, is tried next.
type Provider struct {
	crypto   ports.MarketDataProvider
	equity   ports.MarketDataProvider
	fallback ports.MarketDataProvider
	logger   ports.Logger
}

// New builds a router. crypto or equity may be nil, in which case the fallback serves that class.
func New(crypto, equity, fallback ports.MarketDataProvider, logger ports.Logger) *Provider {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	return &Provider{crypto: crypto, equity: equity, fallback: fallback, logger: logger}
}

func (p *Provider) Name() string { return "composite" }

func (p *Provider) DetectAssetType(ticker string) domain.AssetType {
	return domain.DetectAssetType(ticker)
}

func (p *Provider) chain(ticker string) []ports.MarketDataProvider {
	primary := p.equity
	if p.DetectAssetType(ticker) == domain.AssetCrypto {
		primary = p.crypto
	}
	var out []ports.MarketDataProvider
	if primary != nil {
		out = append(out, primary)
	}
	if p.fallback != nil && p.fallback != primary {
		out = append(out, p.fallback)
	}
	return out
}

// try runs fn against each source in order and returns the first success.
func try[T any](ctx context.Context, p *Provider, op, ticker string, fn func(ports.MarketDataProvider) (T, error)) (T, error) {
	var (
		zero T
		errs []error
	)
	sources := p.chain(ticker)
	if len(sources) == 0 {
		return zero, ports.ErrProviderUnavailable
	}
	for i, src := range sources {
		v, err := fn(src)
		if err == nil {
			return v, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
		if i < len(sources)-1 {
			p.logger.Warn(ctx, "Provider failed, falling back", map[string]interface{}{
				"op": op, "ticker": ticker, "provider": src.Name(), "next": sources[i+1].Name(), "error": err.Error(),
			})
		}
	}
	return zero, errors.Join(errs...)
}

func (p *Provider) GetCurrentPrice(ctx context.Context, ticker string) (domain.PriceQuote, error) {
	return try(ctx, p, "price", ticker, func(src ports.MarketDataProvider) (domain.PriceQuote, error) {
		return src.GetCurrentPrice(ctx, ticker)
	})
}

func (p *Provider) GetCandles(ctx context.Context, ticker, timeframe string, limit int) ([]domain.Candle, error) {
	return try(ctx, p, "candles", ticker, func(src ports.MarketDataProvider) ([]domain.Candle, error) {
		return src.GetCandles(ctx, ticker, timeframe, limit)
	})
}

// GetFundamentals does not fall back: a live source with no fundamentals must not be padded with
// another source's figures.
func (p *Provider) GetFundamentals(ctx context.Context, ticker string) (*domain.FundamentalData, error) {
	sources := p.chain(ticker)
	if len(sources) == 0 {
		return nil, ports.ErrProviderUnavailable
	}
	return sources[0].GetFundamentals(ctx, ticker)
}
