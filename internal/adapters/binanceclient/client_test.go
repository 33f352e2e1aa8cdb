package binanceclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"signalDesk/internal/domain"
	"signalDesk/internal/ports"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL, Logger: ports.NopLogger{}})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresLogger(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}

func TestSymbolAndInterval(t *testing.T) {
	assert.Equal(t, "BTCUSDT", Symbol("btc"))
	assert.Equal(t, "ETHUSDT", Symbol("ETH-USD"))
	assert.Equal(t, "SOLUSDT", Symbol("SOLUSDT"))

	iv, ok := Interval("4h")
	assert.True(t, ok)
	assert.Equal(t, "4h", iv)
	_, ok = Interval("3D")
	assert.False(t, ok)
}

func TestTranslateBinanceKline(t *testing.T) {
	c, err := translateBinanceKline(&futures.Kline{
		OpenTime: 1700000000000, Open: "100.5", High: "110", Low: "99", Close: "105.25", Volume: "1234.5",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Candle{Timestamp: 1700000000000, Open: 100.5, High: 110, Low: 99, Close: 105.25, Volume: 1234.5}, c)

	_, err = translateBinanceKline(&futures.Kline{Open: "x"})
	assert.Error(t, err)
	_, err = translateBinanceKline(nil)
	assert.Error(t, err)
}

func TestHandleError(t *testing.T) {
	c := &Client{logger: ports.NopLogger{}}
	ctx := context.Background()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"rate limited", &common.APIError{Code: -1003, Message: "too many"}, ports.ErrRateLimited},
		{"invalid symbol", &common.APIError{Code: -1121, Message: "Invalid symbol."}, ports.ErrUnsupportedTicker},
		{"bad key", &common.APIError{Code: -2015}, ports.ErrAuthenticationFailed},
		{"bad param", &common.APIError{Code: -1102}, ports.ErrInvalidRequest},
		{"other api", &common.APIError{Code: -9999}, ports.ErrProviderFailure},
		{"deadline", context.DeadlineExceeded, ports.ErrTimeout},
		{"canceled", context.Canceled, ports.ErrContextCanceled},
		{"refused", errors.New("dial tcp: connection refused"), ports.ErrProviderUnavailable},
		{"other", errors.New("boom"), ports.ErrProviderFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.handleError(ctx, tt.err, "op")
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.err)
		})
	}
	assert.NoError(t, c.handleError(ctx, nil, "op"))
}

func TestGetCandles(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			[1700000000000,"100","110","95","105","1000",1700086399999,"0",10,"0","0","0"],
			[1700086400000,"105","112","101","111","1500",1700172799999,"0",12,"0","0","0"]
		]`))
	})

	candles, err := c.GetCandles(context.Background(), "BTC", "1D", 2)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, int64(1700000000000), candles[0].Timestamp)
	assert.Equal(t, 111.0, candles[1].Close)
	assert.Equal(t, 1500.0, candles[1].Volume)
}

func TestGetCandles_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	})

	_, err := c.GetCandles(context.Background(), "NOPE", "1D", 10)
	assert.ErrorIs(t, err, ports.ErrUnsupportedTicker)

	_, err = c.GetCandles(context.Background(), "BTC", "2M", 10)
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)
}

func TestGetCurrentPrice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/ticker/24hr", r.URL.Path)
		assert.Equal(t, "ETHUSDT", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`{"symbol":"ETHUSDT","priceChange":"-50.5","priceChangePercent":"-1.47","lastPrice":"3380.25"}`))
	})

	q, err := c.GetCurrentPrice(context.Background(), "eth")
	require.NoError(t, err)
	assert.Equal(t, 3380.25, q.Price)
	require.NotNil(t, q.Change24h)
	assert.Equal(t, -50.5, *q.Change24h)
	require.NotNil(t, q.ChangePercent24h)
	assert.Equal(t, -1.47, *q.ChangePercent24h)
}

func TestRateLimiterHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	c.limiter = rate.NewLimiter(rate.Limit(0.001), 1)

	_, err := c.GetCandles(context.Background(), "BTC", "1D", 1)
	require.NoError(t, err, "first request uses the burst")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.GetCandles(ctx, "BTC", "1D", 1)
	assert.Error(t, err)
}

func TestFundamentalsAreNil(t *testing.T) {
	c := &Client{}
	f, err := c.GetFundamentals(context.Background(), "BTC")
	assert.NoError(t, err)
	assert.Nil(t, f)
	assert.Equal(t, domain.AssetCrypto, c.DetectAssetType("BTC"))
}
