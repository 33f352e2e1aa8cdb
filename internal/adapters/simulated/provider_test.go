package simulated

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalDesk/internal/domain"
	"signalDesk/internal/ports"
)

var anchor = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func TestGetCandles_Deterministic(t *testing.T) {
	a := New(WithSeed(1), WithAnchor(anchor))
	b := New(WithSeed(2), WithAnchor(anchor))

	ca, err := a.GetCandles(context.Background(), "AAPL", "1D", 120)
	require.NoError(t, err)
	cb, err := b.GetCandles(context.Background(), "aapl", "1d", 120)
	require.NoError(t, err)

	assert.Equal(t, ca, cb)
	require.Len(t, ca, 120)
	assert.Equal(t, anchor.UnixMilli(), ca[len(ca)-1].Timestamp)
	assert.Equal(t, 190.0, ca[len(ca)-1].Close)
	for i, c := range ca {
		assert.GreaterOrEqual(t, c.High, c.Low, "candle %d", i)
		assert.GreaterOrEqual(t, c.High, c.Close)
		assert.LessOrEqual(t, c.Low, c.Close)
		assert.Positive(t, c.Volume)
		if i > 0 {
			assert.Equal(t, int64(24*time.Hour/time.Millisecond), c.Timestamp-ca[i-1].Timestamp)
		}
	}
}

func TestGetCandles_SeriesDifferByTickerAndTimeframe(t *testing.T) {
	p := New(WithAnchor(anchor))
	ctx := context.Background()

	daily, err := p.GetCandles(ctx, "BTC", "1D", 30)
	require.NoError(t, err)
	h4, err := p.GetCandles(ctx, "BTC", "4H", 30)
	require.NoError(t, err)
	eth, err := p.GetCandles(ctx, "ETH", "1D", 30)
	require.NoError(t, err)

	assert.NotEqual(t, daily, h4)
	assert.NotEqual(t, daily[0].Close, eth[0].Close)

	pair, err := p.GetCandles(ctx, "BTCUSDT", "1D", 30)
	require.NoError(t, err)
	assert.Equal(t, daily, pair, "quote suffix is ignored")
}

func TestGetCandles_Validation(t *testing.T) {
	p := New()
	_, err := p.GetCandles(context.Background(), "BTC", "7M", 10)
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)

	_, err = p.GetCandles(context.Background(), "BTC", "1D", 0)
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)

	c, err := p.GetCandles(context.Background(), "BTC", "1D", MaxCandles+50)
	require.NoError(t, err)
	assert.Len(t, c, MaxCandles)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.GetCandles(ctx, "BTC", "1D", 10)
	assert.ErrorIs(t, err, ports.ErrContextCanceled)
}

func TestGetCurrentPrice_DriftsWithinBounds(t *testing.T) {
	p := New(WithSeed(42))
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		q, err := p.GetCurrentPrice(ctx, "BTC")
		require.NoError(t, err)
		assert.InDelta(t, 65000, q.Price, 65000*0.1+1)
		require.NotNil(t, q.ChangePercent24h)
	}

	other := New(WithSeed(42))
	q1, _ := New(WithSeed(42)).GetCurrentPrice(ctx, "ETH")
	q2, _ := other.GetCurrentPrice(ctx, "ETH")
	assert.Equal(t, q1, q2, "same seed, same first quote")

	_, err := p.GetCurrentPrice(ctx, " ")
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)
}

func TestGetFundamentals(t *testing.T) {
	p := New()
	ctx := context.Background()

	f, err := p.GetFundamentals(ctx, "BTC")
	require.NoError(t, err)
	assert.Nil(t, f)

	etf, err := p.GetFundamentals(ctx, "SPY")
	require.NoError(t, err)
	require.NotNil(t, etf)
	assert.NotNil(t, etf.PERatio)
	assert.Nil(t, etf.RevenueGrowth)

	s1, err := p.GetFundamentals(ctx, "MSFT")
	require.NoError(t, err)
	s2, err := New().GetFundamentals(ctx, "msft")
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
	require.NotNil(t, s1.PERatio)
	assert.GreaterOrEqual(t, *s1.PERatio, 8.0)
}

func TestDetectAssetType(t *testing.T) {
	p := New()
	assert.Equal(t, domain.AssetCrypto, p.DetectAssetType("eth"))
	assert.Equal(t, domain.AssetETF, p.DetectAssetType("QQQ"))
	assert.Equal(t, domain.AssetStock, p.DetectAssetType("NVDA"))
	assert.Equal(t, "simulated", p.Name())
}
