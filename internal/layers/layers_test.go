package layers

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalDesk/internal/domain"
	"signalDesk/internal/strategy/indicators"
)

func candles(closes ...float64) []domain.Candle {
	out := make([]domain.Candle, len(closes))
	for i, c := range closes {
		out[i] = domain.Candle{
			Timestamp: int64(i) * 86_400_000,
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return out
}

func geometric(n int, start, step float64) []float64 {
	out := make([]float64, n)
	v := start
	for i := range out {
		out[i] = v
		v *= 1 + step
	}
	return out
}

func alternating(n int, start, r float64) []float64 {
	out := []float64{start}
	for i := 1; i < n; i++ {
		last := out[i-1]
		if i%2 == 1 {
			out = append(out, last*(1+r))
		} else {
			out = append(out, last*(1-r))
		}
	}
	return out
}

func input(mode domain.Mode, cs []domain.Candle) Input {
	price := 0.0
	if len(cs) > 0 {
		price = cs[len(cs)-1].Close
	}
	return Input{
		Ticker: "TEST",
		Mode:   mode,
		Market: domain.MarketData{
			Ticker:       "TEST",
			AssetType:    domain.AssetStock,
			CurrentPrice: price,
			Candles:      cs,
			Timeframe:    "1D",
		},
	}
}

func TestRegistry_Order(t *testing.T) {
	reg := Registry()
	require.Len(t, reg, len(domain.LayerNames))
	for i, l := range reg {
		assert.Equal(t, domain.LayerNames[i], l.Name())
	}
}

func TestLayers_InsufficientData(t *testing.T) {
	short := candles(100, 101, 102, 103, 104)
	for _, l := range []Layer{NewTrend(), NewMomentum(), NewSupportResistance(), NewVolumeVolatility()} {
		t.Run(string(l.Name()), func(t *testing.T) {
			out, err := l.Analyze(context.Background(), input(domain.ModeSwing, short))
			require.NoError(t, err)
			assert.Equal(t, 5.0, out.Score)
			assert.Equal(t, []domain.Flag{domain.FlagInsufficientData}, out.Flags)
			assert.NotEmpty(t, out.Note)
		})
	}
}

func TestLayers_Idempotent(t *testing.T) {
	cs := candles(alternating(40, 100, 0.02)...)
	for _, l := range []Layer{NewTrend(), NewMomentum(), NewSupportResistance(), NewVolumeVolatility()} {
		t.Run(string(l.Name()), func(t *testing.T) {
			first, err := l.Analyze(context.Background(), input(domain.ModeSwing, cs))
			require.NoError(t, err)
			second, err := l.Analyze(context.Background(), input(domain.ModeSwing, cs))
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestTrend_UptrendOnTwentyRisingCandles(t *testing.T) {
	cs := candles(geometric(20, 100, 0.012)...)

	out, err := NewTrend().Analyze(context.Background(), input(domain.ModeSwing, cs))
	require.NoError(t, err)

	assert.True(t, out.Has(domain.FlagUptrend))
	assert.GreaterOrEqual(t, out.Score, 6.0)
	assert.GreaterOrEqual(t, out.Metadata["spreadPct"], 5.0)
	assert.Equal(t, 10.0, out.Metadata["shortWindow"])
	assert.Equal(t, 20.0, out.Metadata["longWindow"])
	assert.True(t, out.Has(domain.FlagStrongTrend))
}

func TestTrend_AveragesFromMovingAverageIndicator(t *testing.T) {
	cs := candles(geometric(60, 100, 0.005)...)

	out, err := NewTrend().Analyze(context.Background(), input(domain.ModeSwing, cs))
	require.NoError(t, err)

	for key, period := range map[string]int{"shortMA": 20, "longMA": 50} {
		ma := indicators.NewMovingAverage(indicators.MovingAverageConfig{
			IndicatorConfig: indicators.IndicatorConfig{Period: period},
			Type:            indicators.SimpleMovingAverage,
		})
		want, err := ma.Calculate(context.Background(), cs)
		require.NoError(t, err)
		assert.InDelta(t, want, out.Metadata[key], 0.005, key)
	}
}

func TestTrend_DowntrendAndRange(t *testing.T) {
	down, err := NewTrend().Analyze(context.Background(), input(domain.ModeSwing, candles(geometric(60, 200, -0.01)...)))
	require.NoError(t, err)
	assert.True(t, down.Has(domain.FlagDowntrend))
	assert.LessOrEqual(t, down.Score, 4.0)

	flat, err := NewTrend().Analyze(context.Background(), input(domain.ModeSwing, candles(alternating(60, 100, 0.01)...)))
	require.NoError(t, err)
	assert.True(t, flat.Has(domain.FlagRangeBound))
	assert.Equal(t, 5.0, flat.Score)
}

func TestMomentum_OverboughtOnSteadyRise(t *testing.T) {
	cs := candles(geometric(30, 100, 0.01)...)

	out, err := NewMomentum().Analyze(context.Background(), input(domain.ModeSwing, cs))
	require.NoError(t, err)

	assert.Equal(t, 100.0, out.Metadata["rsi"])
	assert.True(t, out.Has(domain.FlagOverbought))
	// The repeated-scalar signal line leaves the MACD reading flat.
	assert.False(t, out.Has(domain.FlagMACDBullish))
	assert.Equal(t, 3.0, out.Score)
}

func TestMomentum_Classify(t *testing.T) {
	m := NewMomentum()
	bullish := indicators.MACDResult{MACD: 1, Signal: 0.5, Histogram: 0.5}
	bearish := indicators.MACDResult{MACD: -1, Signal: -0.5, Histogram: -0.5}

	tests := []struct {
		name      string
		rsi       float64
		macd      indicators.MACDResult
		wantScore float64
		wantFlags []domain.Flag
	}{
		{"bullish macd with weak rsi", 35, bullish, 7.5, []domain.Flag{domain.FlagMACDBullish, domain.FlagStrongBullishMomentum}},
		{"oversold with bullish macd", 25, bullish, 9.5, []domain.Flag{domain.FlagOversold, domain.FlagMACDBullish, domain.FlagStrongBullishMomentum}},
		{"bearish macd with strong rsi", 65, bearish, 2.5, []domain.Flag{domain.FlagMACDBearish, domain.FlagStrongBearishMomentum}},
		{"overbought and bearish", 75, bearish, 0.5, []domain.Flag{domain.FlagOverbought, domain.FlagMACDBearish, domain.FlagStrongBearishMomentum}},
		{"neutral", 50, indicators.MACDResult{}, 5, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, flags := m.classify(tt.rsi, tt.macd)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantFlags, flags)
		})
	}
}

func TestSupportResistance_NearSupport(t *testing.T) {
	cs := candles(100, 98, 96, 94, 92, 90, 92, 94, 96, 98, 100, 98, 96, 94, 90.5)

	out, err := NewSupportResistance().Analyze(context.Background(), input(domain.ModeSwing, cs))
	require.NoError(t, err)

	assert.True(t, out.Has(domain.FlagNearSupport))
	assert.False(t, out.Has(domain.FlagNearResistance))
	assert.Equal(t, 89.0, out.Metadata["support"])
	assert.Equal(t, 101.0, out.Metadata["resistance"])
	assert.Equal(t, 7.5, out.Score)
}

func TestSupportResistance_NoLevels(t *testing.T) {
	cs := candles(geometric(15, 100, 0.01)...)

	out, err := NewSupportResistance().Analyze(context.Background(), input(domain.ModeSwing, cs))
	require.NoError(t, err)

	assert.True(t, out.Has(domain.FlagNoSupportBelow))
	assert.True(t, out.Has(domain.FlagNoResistanceAbove))
	assert.Equal(t, 5.0, out.Score)
}

func TestVolumeVolatility_VeryHighVolatilityAmplifiedInRiskOnly(t *testing.T) {
	// +/-3.5% alternating daily returns annualise to ~0.556.
	cs := candles(alternating(30, 100, 0.035)...)

	swing, err := NewVolumeVolatility().Analyze(context.Background(), input(domain.ModeSwing, cs))
	require.NoError(t, err)
	risk, err := NewVolumeVolatility().Analyze(context.Background(), input(domain.ModeRiskOnly, cs))
	require.NoError(t, err)

	assert.InDelta(t, 0.035*math.Sqrt(252), swing.Metadata[MetaVolatility], 0.01)
	assert.True(t, swing.Has(domain.FlagVeryHighVolatility))
	assert.Equal(t, 3.0, swing.Score)
	assert.Equal(t, 2.0, risk.Score)
	assert.Contains(t, swing.Metadata, MetaATRPercent)
}

func TestVolumeVolatility_VolumeSurge(t *testing.T) {
	cs := candles(alternating(30, 100, 0.005)...)
	for i := len(cs) - 5; i < len(cs); i++ {
		cs[i].Volume = 4000
	}
	cs[len(cs)-1].Close = cs[len(cs)-2].Close * 1.002

	out, err := NewVolumeVolatility().Analyze(context.Background(), input(domain.ModeSwing, cs))
	require.NoError(t, err)

	assert.True(t, out.Has(domain.FlagHighVolume))
	assert.True(t, out.Has(domain.FlagHighVolumeBuying))
	assert.True(t, out.Has(domain.FlagLowVolatility))
	assert.Equal(t, 7.0, out.Score)
}

func TestFundamentals(t *testing.T) {
	strong := &domain.FundamentalData{PERatio: domain.Float(12), RevenueGrowth: domain.Float(25), EarningsGrowth: domain.Float(30)}
	weak := &domain.FundamentalData{PERatio: domain.Float(60), RevenueGrowth: domain.Float(-5), EarningsGrowth: domain.Float(-10)}

	tests := []struct {
		name      string
		mode      domain.Mode
		asset     domain.AssetType
		fd        *domain.FundamentalData
		wantScore float64
		wantFlag  domain.Flag
	}{
		{"strong long term", domain.ModeLongTerm, domain.AssetStock, strong, 9, domain.FlagLowPE},
		{"strong swing is halved", domain.ModeSwing, domain.AssetStock, strong, 7, domain.FlagStrongRevenueGrowth},
		{"weak long term clamps", domain.ModeLongTerm, domain.AssetStock, weak, 0, domain.FlagVeryHighPE},
		{"weak swing", domain.ModeSwing, domain.AssetStock, weak, 2.5, domain.FlagRevenueDecline},
		{"crypto", domain.ModeLongTerm, domain.AssetCrypto, strong, 5, domain.FlagNotApplicable},
		{"missing data", domain.ModeLongTerm, domain.AssetStock, nil, 5, domain.FlagNotApplicable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input(tt.mode, nil)
			in.Market.AssetType = tt.asset
			in.Fundamentals = tt.fd

			out, err := NewFundamentals().Analyze(context.Background(), in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, out.Score)
			assert.True(t, out.Has(tt.wantFlag), "flags: %v", out.Flags)
		})
	}
}

func TestFundamentals_NotApplicableInRiskOnly(t *testing.T) {
	f := NewFundamentals()
	assert.False(t, f.IsApplicable(domain.ModeRiskOnly))
	assert.True(t, f.IsApplicable(domain.ModeLongTerm))
	assert.True(t, f.IsApplicable(domain.ModeSwing))
}

func TestUserPosition(t *testing.T) {
	tests := []struct {
		name      string
		pos       *domain.UserPosition
		price     float64
		wantScore float64
		wantFlags []domain.Flag
	}{
		{"no position", nil, 100, 5, []domain.Flag{domain.FlagNoPosition}},
		{"large profit", &domain.UserPosition{AvgEntryPrice: 100, Quantity: 2}, 160, 2, []domain.Flag{domain.FlagLargeProfit}},
		{"moderate profit", &domain.UserPosition{AvgEntryPrice: 100, Quantity: 2}, 130, 3.5, []domain.Flag{domain.FlagModerateProfit}},
		{"large loss is non-directional", &domain.UserPosition{AvgEntryPrice: 100, Quantity: 2}, 60, 5, []domain.Flag{domain.FlagLargeLoss}},
		{"low tolerance exceeded", &domain.UserPosition{AvgEntryPrice: 100, Quantity: 1, RiskTolerance: domain.RiskToleranceLow}, 75, 5, []domain.Flag{domain.FlagRiskToleranceExceeded}},
		{"invalid entry", &domain.UserPosition{AvgEntryPrice: 0, Quantity: 1}, 75, 5, []domain.Flag{domain.FlagInsufficientData}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input(domain.ModeSwing, nil)
			in.Market.CurrentPrice = tt.price
			in.Position = tt.pos

			out, err := NewUserPosition().Analyze(context.Background(), in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, out.Score)
			assert.Equal(t, tt.wantFlags, out.Flags)
		})
	}
}

func TestUserPosition_IgnoresStaleCallerPnL(t *testing.T) {
	in := input(domain.ModeSwing, nil)
	in.Market.CurrentPrice = 160
	in.Position = &domain.UserPosition{AvgEntryPrice: 100, Quantity: 1, PnLPercent: -90, PnL: -90}

	out, err := NewUserPosition().Analyze(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 60.0, out.Metadata[MetaPnLPercent])
	assert.Equal(t, -90.0, in.Position.PnLPercent, "caller's position is not mutated")
}
