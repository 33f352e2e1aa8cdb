// Package rediscache adds Redis caching to market data providers and alert deduplication.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"signalDesk/internal/domain"
	"signalDesk/internal/ports"
)

// Provider decorates a MarketDataProvider with a Redis read-through cache for candles and
// fundamentals. Prices are never cached.
type Provider struct {
	inner     ports.MarketDataProvider
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	logger    ports.Logger
}

// NewProvider decorates inner. If ttl is 0 it defaults to 5 minutes; an empty namespace
// becomes "md". A nil rdb bypasses the cache.
func NewProvider(rdb *redis.Client, ttl time.Duration, inner ports.MarketDataProvider, namespace string, logger ports.Logger) *Provider {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "md"
	}
	if logger == nil {
		logger = ports.NopLogger{}
	}
	return &Provider{inner: inner, rdb: rdb, ttl: ttl, namespace: namespace, logger: logger}
}

func (p *Provider) Name() string { return p.inner.Name() + "+redis" }

func (p *Provider) DetectAssetType(ticker string) domain.AssetType {
	return p.inner.DetectAssetType(ticker)
}

func (p *Provider) GetCurrentPrice(ctx context.Context, ticker string) (domain.PriceQuote, error) {
	return p.inner.GetCurrentPrice(ctx, ticker)
}

// GetCandles checks the cache first, then falls back to the wrapped provider.
func (p *Provider) GetCandles(ctx context.Context, ticker, timeframe string, limit int) ([]domain.Candle, error) {
	if p.rdb == nil {
		return p.inner.GetCandles(ctx, ticker, timeframe, limit)
	}
	key := p.candleKey(ticker, timeframe, limit)

	var cached []domain.Candle
	if p.lookup(ctx, key, &cached) {
		return cached, nil
	}

	out, err := p.inner.GetCandles(ctx, ticker, timeframe, limit)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, out)
	return out, nil
}

// GetFundamentals caches the wrapped provider's answer, including "no data".
func (p *Provider) GetFundamentals(ctx context.Context, ticker string) (*domain.FundamentalData, error) {
	if p.rdb == nil {
		return p.inner.GetFundamentals(ctx, ticker)
	}
	key := p.fundamentalsKey(ticker)

	var cached *domain.FundamentalData
	if p.lookup(ctx, key, &cached) {
		return cached, nil
	}

	out, err := p.inner.GetFundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, out)
	return out, nil
}

// Invalidate drops every cached entry for ticker.
func (p *Provider) Invalidate(ctx context.Context, ticker string) error {
	if p.rdb == nil {
		return nil
	}
	for _, pattern := range []string{p.candlePrefix(ticker) + "*", p.fundamentalsKey(ticker)} {
		if err := deleteByPattern(ctx, p.rdb, pattern); err != nil {
			return fmt.Errorf("cache invalidate failed: %w: %w", ports.ErrCacheFailure, err)
		}
	}
	return nil
}

// lookup decodes key into dst. Corrupt entries are deleted and reported as a miss.
func (p *Provider) lookup(ctx context.Context, key string, dst interface{}) bool {
	b, err := p.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			p.logger.Warn(ctx, "Redis read failed, bypassing cache", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return false
	}
	if len(b) == 0 {
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		// Delete corrupted cache entry
		_ = p.rdb.Del(ctx, key).Err()
		return false
	}
	return true
}

// store writes v best effort.
func (p *Provider) store(ctx context.Context, key string, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := p.rdb.Set(ctx, key, b, p.ttl).Err(); err != nil {
		p.logger.Warn(ctx, "Redis write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func (p *Provider) candleKey(ticker, timeframe string, limit int) string {
	return fmt.Sprintf("%s%s:%d", p.candlePrefix(ticker), safe(strings.ToUpper(timeframe)), limit)
}

func (p *Provider) candlePrefix(ticker string) string {
	return fmt.Sprintf("%s:candles:%s:", p.namespace, safe(domain.NormalizeTicker(ticker)))
}

func (p *Provider) fundamentalsKey(ticker string) string {
	return fmt.Sprintf("%s:fundamentals:%s", p.namespace, safe(domain.NormalizeTicker(ticker)))
}

// deleteByPattern deletes all keys matching pattern using SCAN.
func deleteByPattern(ctx context.Context, rdb *redis.Client, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
