// Package bootstrap builds the infrastructure shared by the server and the CLIs.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"signalDesk/config"
	"signalDesk/internal/adapters/binanceclient"
	"signalDesk/internal/adapters/composite"
	"signalDesk/internal/adapters/rediscache"
	"signalDesk/internal/adapters/simulated"
	"signalDesk/internal/adapters/yahoo"
	"signalDesk/internal/ports"
)

const redisPingTimeout = 3 * time.Second

// MarketData bundles the provider chain with its optional cache layer.
type MarketData struct {
	Provider ports.MarketDataProvider
	Cache    *rediscache.Provider  // nil without Redis
	Binance  *binanceclient.Client // nil in simulated mode
}

// NewRedis connects to Redis when REDIS_ADDR is set. It returns nil, nil otherwise.
func NewRedis(ctx context.Context, cfg *config.Config, logger ports.Logger) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s failed: %w: %w", cfg.RedisAddr, ports.ErrCacheFailure, err)
	}
	logger.Info(ctx, "Redis connected", map[string]interface{}{"addr": cfg.RedisAddr, "db": cfg.RedisDB})
	return rdb, nil
}

// NewMarketData builds the simulated provider, or the live composite chain with the
// simulator as fallback. rdb may be nil.
func NewMarketData(cfg *config.Config, logger ports.Logger, rdb *redis.Client) (*MarketData, error) {
	sim := simulated.New()
	md := &MarketData{Provider: sim}

	if cfg.UseLiveData {
		bc, err := binanceclient.New(binanceclient.Config{
			APIKey:     cfg.BinanceAPIKey,
			SecretKey:  cfg.BinanceSecretKey,
			UseTestnet: cfg.BinanceTestnet,
			RateLimit:  cfg.BinanceRateLimit,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		yc := yahoo.New(yahoo.Config{
			Timeout:   cfg.ProviderTimeout,
			RateLimit: cfg.YahooRateLimit,
			Logger:    logger,
		})
		md.Binance = bc
		md.Provider = composite.New(bc, yc, sim, logger)
	}

	if rdb != nil {
		md.Cache = rediscache.NewProvider(rdb, cfg.CacheTTL, md.Provider, "md", logger)
		md.Provider = md.Cache
	}
	return md, nil
}
