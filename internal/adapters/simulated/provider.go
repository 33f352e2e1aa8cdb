// Package simulated generates deterministic market data so the service runs without network
// access and tests have reproducible inputs.
package simulated

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
	"time"

	"signalDesk/internal/domain"
	"signalDesk/internal/ports"
)

// MaxCandles caps a single GetCandles call.
const MaxCandles = 1000

var basePrices = map[string]float64{
	"BTC":   65000,
	"ETH":   3400,
	"SOL":   150,
	"BNB":   580,
	"XRP":   0.6,
	"DOGE":  0.15,
	"AAPL":  190,
	"MSFT":  420,
	"NVDA":  880,
	"TSLA":  175,
	"AMZN":  180,
	"GOOGL": 165,
	"SPY":   520,
	"QQQ":   440,
}

// Provider is safe for concurrent use. Price drift is held per instance.
type Provider struct {
	mu     sync.Mutex
	drift  map[string]float64 // ticker -> cumulative percent drift applied to quotes
	rng    *rand.Rand
	anchor time.Time
}

// Option configures a Provider.
type Option func(*Provider)

// WithSeed fixes the drift sequence.
func WithSeed(seed int64) Option {
	return func(p *Provider) { p.rng = rand.New(rand.NewSource(seed)) }
}

// WithAnchor sets the time of the newest generated candle.
func WithAnchor(t time.Time) Option {
	return func(p *Provider) { p.anchor = t }
}

// New creates a Provider anchored at the current day.
func New(opts ...Option) *Provider {
	p := &Provider{
		drift:  make(map[string]float64),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		anchor: time.Now().UTC().Truncate(24 * time.Hour),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string { return "simulated" }

func (p *Provider) DetectAssetType(ticker string) domain.AssetType {
	return domain.DetectAssetType(ticker)
}

// GetCurrentPrice returns the base price moved by a small random walk that persists per ticker.
func (p *Provider) GetCurrentPrice(ctx context.Context, ticker string) (domain.PriceQuote, error) {
	if err := ctx.Err(); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("simulated price failed: %w: %w", ports.ErrContextCanceled, err)
	}
	key := domain.BaseAsset(ticker)
	if key == "" {
		return domain.PriceQuote{}, fmt.Errorf("simulated price failed: %w: empty ticker", ports.ErrInvalidRequest)
	}
	base := basePrice(key)

	p.mu.Lock()
	d := p.drift[key] + (p.rng.Float64()-0.5)*0.4
	d = domain.Clamp(d, -10, 10)
	p.drift[key] = d
	p.mu.Unlock()

	price := round(base*(1+d/100), 6)
	change := round(price-base, 6)
	return domain.PriceQuote{
		Price:            price,
		Change24h:        domain.Float(change),
		ChangePercent24h: domain.Float(round(d, 4)),
	}, nil
}

// GetCandles returns limit candles ending at the anchor. The series depends only on ticker and
// timeframe, so repeated calls agree.
func (p *Provider) GetCandles(ctx context.Context, ticker, timeframe string, limit int) ([]domain.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("simulated candles failed: %w: %w", ports.ErrContextCanceled, err)
	}
	step, ok := domain.TimeframeDuration(timeframe)
	if !ok {
		return nil, fmt.Errorf("simulated candles failed: %w: unknown timeframe %q", ports.ErrInvalidRequest, timeframe)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("simulated candles failed: %w: limit must be positive", ports.ErrInvalidRequest)
	}
	if limit > MaxCandles {
		limit = MaxCandles
	}
	key := domain.BaseAsset(ticker)
	return generate(key, timeframe, limit, basePrice(key), step, p.anchor), nil
}

// GetFundamentals returns stable per-ticker valuation figures for stocks, a P/E only for ETFs
// and nothing for crypto.
func (p *Provider) GetFundamentals(ctx context.Context, ticker string) (*domain.FundamentalData, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("simulated fundamentals failed: %w: %w", ports.ErrContextCanceled, err)
	}
	key := domain.NormalizeTicker(ticker)
	r := rand.New(rand.NewSource(seedFor(key, "fundamentals")))
	switch domain.DetectAssetType(key) {
	case domain.AssetCrypto:
		return nil, nil
	case domain.AssetETF:
		return &domain.FundamentalData{PERatio: domain.Float(round(15+r.Float64()*15, 2))}, nil
	}
	pe := round(8+r.Float64()*55, 2)
	revenue := round(1e9+r.Float64()*9e10, 0)
	return &domain.FundamentalData{
		PERatio:        domain.Float(pe),
		PSRatio:        domain.Float(round(1+r.Float64()*14, 2)),
		MarketCap:      domain.Float(round(revenue*(2+r.Float64()*8), 0)),
		Revenue:        domain.Float(revenue),
		RevenueGrowth:  domain.Float(round(-10+r.Float64()*45, 2)),
		Earnings:       domain.Float(round(revenue*(0.05+r.Float64()*0.2), 0)),
		EarningsGrowth: domain.Float(round(-20+r.Float64()*60, 2)),
	}, nil
}

func generate(key, timeframe string, n int, base float64, step time.Duration, anchor time.Time) []domain.Candle {
	r := rand.New(rand.NewSource(seedFor(key, timeframe)))
	vol := 0.01 * math.Sqrt(step.Hours()/24)
	if domain.DetectAssetType(key) == domain.AssetCrypto {
		vol *= 2
	}
	trend := (r.Float64() - 0.5) * vol / 2

	// Walk backwards from the base price so the newest close sits near it.
	closes := make([]float64, n)
	price := base
	for i := n - 1; i >= 0; i-- {
		closes[i] = price
		price /= 1 + trend + r.NormFloat64()*vol
		if price <= 0 {
			price = closes[i]
		}
	}

	baseVolume := 1e6 * (0.5 + r.Float64())
	out := make([]domain.Candle, n)
	start := anchor.Add(-time.Duration(n-1) * step)
	prev := closes[0]
	for i, c := range closes {
		open := prev
		wick := math.Abs(r.NormFloat64()) * vol * c / 2
		out[i] = domain.Candle{
			Timestamp: start.Add(time.Duration(i) * step).UnixMilli(),
			Open:      round(open, 6),
			High:      round(math.Max(open, c)+wick, 6),
			Low:       round(math.Max(math.Min(open, c)-wick, 0), 6),
			Close:     round(c, 6),
			Volume:    round(baseVolume*(0.6+r.Float64()*0.8), 2),
		}
		prev = c
	}
	return out
}

func basePrice(key string) float64 {
	if p, ok := basePrices[key]; ok {
		return p
	}
	r := rand.New(rand.NewSource(seedFor(key, "base")))
	return round(20+r.Float64()*280, 2)
}

func seedFor(parts ...string) int64 {
	h := fnv.New64a()
	for _, s := range parts {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	return int64(h.Sum64() & math.MaxInt64)
}

func round(v float64, places int) float64 {
	f := math.Pow(10, float64(places))
	return math.Round(v*f) / f
}
