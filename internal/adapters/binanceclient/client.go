// Package binanceclient serves live crypto market data from Binance USDT-M futures.
package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"golang.org/x/time/rate"

	"signalDesk/internal/domain"
	"signalDesk/internal/ports"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"

	// quoteAsset is appended to base assets to form the traded symbol.
	quoteAsset = "USDT"
	// maxKlineLimit is the largest page the klines endpoint serves.
	maxKlineLimit = 1500
)

var intervals = map[string]string{
	"1H": "1h",
	"4H": "4h",
	"1D": "1d",
	"1W": "1w",
}

// Client implements ports.MarketDataProvider for crypto tickers using the go-binance library.
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
	limiter       *rate.Limiter
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	BaseURL    string  // Overrides the production/testnet URL when set
	RateLimit  float64 // Requests per second; <= 0 disables limiting
	Logger     ports.Logger
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client: %w", ports.ErrConfigurationError)
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Debug(context.Background(), "Binance credentials not set, using public market data endpoints only")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)
	switch {
	case cfg.BaseURL != "":
		client.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	case cfg.UseTestnet:
		client.BaseURL = baseURLTestnet
	default:
		client.BaseURL = baseURLProduction
	}
	cfg.Logger.Info(context.Background(), "Binance market data client configured", map[string]interface{}{"baseURL": client.BaseURL})

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return &Client{futuresClient: client, logger: cfg.Logger, limiter: limiter}, nil
}

func (c *Client) Name() string { return "binance" }

func (c *Client) DetectAssetType(ticker string) domain.AssetType {
	return domain.DetectAssetType(ticker)
}

// GetFundamentals always returns nil: crypto has no fundamentals.
func (c *Client) GetFundamentals(context.Context, string) (*domain.FundamentalData, error) {
	return nil, nil
}

// Symbol maps a ticker such as "BTC" or "ETH-USD" to the exchange symbol "BTCUSDT".
func Symbol(ticker string) string {
	return domain.BaseAsset(ticker) + quoteAsset
}

// Interval maps a timeframe label to the exchange interval.
func Interval(timeframe string) (string, bool) {
	iv, ok := intervals[strings.ToUpper(strings.TrimSpace(timeframe))]
	return iv, ok
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp outside of recvWindow
			mappedErr = ports.ErrTimeout
		case -1022, -2014, -2015: // Bad signature or API key
			mappedErr = ports.ErrAuthenticationFailed
		case -1121: // Invalid symbol
			mappedErr = ports.ErrUnsupportedTicker
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1115, -1116, -1117, -1120, -1125, -1127, -1128, -1130:
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrProviderFailure
		}
		c.logger.Warn(ctx, fmt.Sprintf("%s failed with API error", operation), fields)
		return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
	}

	// Handle non-API errors (network, context cancellation, etc.)
	var finalErr error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	case strings.Contains(err.Error(), "connection refused"),
		strings.Contains(err.Error(), "connection reset by peer"),
		strings.Contains(err.Error(), "no such host"):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrProviderUnavailable, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrProviderFailure, err)
	}

	c.logger.Warn(ctx, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

func (c *Client) wait(ctx context.Context, op string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return c.handleError(ctx, err, op)
	}
	return nil
}

// GetCurrentPrice returns the last price and 24h change from the ticker statistics endpoint.
func (c *Client) GetCurrentPrice(ctx context.Context, ticker string) (domain.PriceQuote, error) {
	op := "GetCurrentPrice"
	symbol := Symbol(ticker)
	if err := c.wait(ctx, op); err != nil {
		return domain.PriceQuote{}, err
	}
	stats, err := c.futuresClient.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	if err != nil {
		return domain.PriceQuote{}, c.handleError(ctx, err, op)
	}
	if len(stats) == 0 {
		return domain.PriceQuote{}, fmt.Errorf("%s failed: %w: no ticker data for %s", op, ports.ErrNoData, symbol)
	}

	s := stats[0]
	price, err := strconv.ParseFloat(s.LastPrice, 64)
	if err != nil {
		return domain.PriceQuote{}, c.handleError(ctx, fmt.Errorf("could not parse price '%s': %w", s.LastPrice, err), op)
	}
	quote := domain.PriceQuote{Price: price}
	if v, err := strconv.ParseFloat(s.PriceChange, 64); err == nil {
		quote.Change24h = domain.Float(v)
	}
	if v, err := strconv.ParseFloat(s.PriceChangePercent, 64); err == nil {
		quote.ChangePercent24h = domain.Float(v)
	}
	return quote, nil
}

// GetCandles retrieves the most recent limit candles, oldest first.
func (c *Client) GetCandles(ctx context.Context, ticker, timeframe string, limit int) ([]domain.Candle, error) {
	op := "GetCandles"
	interval, ok := Interval(timeframe)
	if !ok {
		return nil, fmt.Errorf("%s failed: %w: unsupported timeframe %q", op, ports.ErrInvalidRequest, timeframe)
	}
	if limit <= 0 || limit > maxKlineLimit {
		limit = maxKlineLimit
	}
	if err := c.wait(ctx, op); err != nil {
		return nil, err
	}
	klines, err := c.futuresClient.NewKlinesService().Symbol(Symbol(ticker)).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	return translateKlines(ctx, c, klines, op)
}

// GetCandlesRange fetches all candles between start and end, paging through the klines endpoint.
func (c *Client) GetCandlesRange(ctx context.Context, ticker, timeframe string, start, end time.Time) ([]domain.Candle, error) {
	op := "GetCandlesRange"
	interval, ok := Interval(timeframe)
	if !ok {
		return nil, fmt.Errorf("%s failed: %w: unsupported timeframe %q", op, ports.ErrInvalidRequest, timeframe)
	}
	symbol := Symbol(ticker)
	var all []domain.Candle
	from := start

	for {
		if err := c.wait(ctx, op); err != nil {
			return nil, err
		}
		klines, err := c.futuresClient.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(from.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(maxKlineLimit).
			Do(ctx)
		if err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		if len(klines) == 0 {
			break
		}
		page, err := translateKlines(ctx, c, klines, op)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		from = time.UnixMilli(klines[len(klines)-1].CloseTime + 1)
		if from.After(end) || len(klines) < maxKlineLimit {
			break
		}
	}
	c.logger.Debug(ctx, op+" complete", map[string]interface{}{"symbol": symbol, "count": len(all)})
	return all, nil
}

func translateKlines(ctx context.Context, c *Client, klines []*futures.Kline, op string) ([]domain.Candle, error) {
	out := make([]domain.Candle, 0, len(klines))
	for _, bk := range klines {
		candle, err := translateBinanceKline(bk)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("failed to translate kline: %w", err), op)
		}
		out = append(out, candle)
	}
	return out, nil
}

func translateBinanceKline(bk *futures.Kline) (domain.Candle, error) {
	if bk == nil {
		return domain.Candle{}, errors.New("received nil kline")
	}
	open, err := strconv.ParseFloat(bk.Open, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing open price '%s': %w", bk.Open, err)
	}
	high, err := strconv.ParseFloat(bk.High, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing high price '%s': %w", bk.High, err)
	}
	low, err := strconv.ParseFloat(bk.Low, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing low price '%s': %w", bk.Low, err)
	}
	cls, err := strconv.ParseFloat(bk.Close, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing close price '%s': %w", bk.Close, err)
	}
	vol, err := strconv.ParseFloat(bk.Volume, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing volume '%s': %w", bk.Volume, err)
	}

	return domain.Candle{
		Timestamp: bk.OpenTime,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     cls,
		Volume:    vol,
	}, nil
}
