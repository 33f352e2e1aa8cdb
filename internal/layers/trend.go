package layers

import (
	"context"
	"fmt"
	"math"

	"signalDesk/internal/domain"
	"signalDesk/internal/strategy/indicators"
)

const (
	trendMinCandles   = 20
	trendShortWindow  = 20
	trendLongWindow   = 50
	trendThresholdPct = 2.0
	trendStrongPct    = 5.0
	trendSpreadCapPct = 10.0
)

// Trend compares short and long simple moving averages.
type Trend struct {
	maType indicators.MovingAverageType
}

func NewTrend() *Trend { return &Trend{maType: indicators.SimpleMovingAverage} }

func (t *Trend) Name() domain.LayerName { return domain.LayerTrend }

func (t *Trend) IsApplicable(domain.Mode) bool { return true }

// windows shrinks the 20/50 pair on short histories: the long window covers the whole
// series and the short window at most half of it.
func (t *Trend) windows(n int) (short, long int) {
	short, long = trendShortWindow, trendLongWindow
	if n < long {
		long = n
		short = min(trendShortWindow, n/2)
	}
	return short, long
}

// average builds the moving average for period; windows shrink with the series, so periods vary per call.
func (t *Trend) average(ctx context.Context, candles []domain.Candle, period int) (float64, error) {
	ma := indicators.NewMovingAverage(indicators.MovingAverageConfig{
		IndicatorConfig: indicators.IndicatorConfig{Period: period},
		Type:            t.maType,
	})
	return ma.Calculate(ctx, candles)
}

func (t *Trend) Analyze(ctx context.Context, in Input) (domain.LayerOutput, error) {
	candles := in.Market.Candles
	if len(candles) < trendMinCandles {
		return domain.NeutralOutput(domain.LayerTrend, domain.FlagInsufficientData,
			fmt.Sprintf("Only %d candles available; trend needs %d.", len(candles), trendMinCandles)), nil
	}

	closes := domain.Closes(candles)
	shortW, longW := t.windows(len(closes))
	shortMA, err := t.average(ctx, candles, shortW)
	if err != nil {
		return domain.LayerOutput{}, err
	}
	longMA, err := t.average(ctx, candles, longW)
	if err != nil {
		return domain.LayerOutput{}, err
	}

	price := in.Market.CurrentPrice
	if price <= 0 {
		price = closes[len(closes)-1]
	}
	spread := (shortMA - longMA) / longMA * 100
	priceVsLong := (price - longMA) / longMA * 100
	capped := math.Min(math.Abs(spread), trendSpreadCapPct) / trendSpreadCapPct

	var (
		score float64
		flags []domain.Flag
		note  string
	)
	switch {
	case spread > trendThresholdPct && priceVsLong > trendThresholdPct:
		score = 6 + capped*4
		flags = append(flags, domain.FlagUptrend)
		note = fmt.Sprintf("Uptrend: %d-period MA is %.1f%% above the %d-period MA and price holds %.1f%% above it.",
			shortW, spread, longW, priceVsLong)
	case spread < -trendThresholdPct && priceVsLong < -trendThresholdPct:
		score = 4 - capped*4
		flags = append(flags, domain.FlagDowntrend)
		note = fmt.Sprintf("Downtrend: %d-period MA is %.1f%% below the %d-period MA and price sits %.1f%% under it.",
			shortW, -spread, longW, -priceVsLong)
	default:
		score = 5
		flags = append(flags, domain.FlagRangeBound)
		note = fmt.Sprintf("No clear trend: moving averages are %.1f%% apart.", spread)
	}
	if score != 5 && math.Abs(spread) > trendStrongPct {
		flags = append(flags, domain.FlagStrongTrend)
	}

	return domain.NewLayerOutput(domain.LayerTrend, score, flags, note, map[string]float64{
		"shortMA":        round2(shortMA),
		"longMA":         round2(longMA),
		"shortWindow":    float64(shortW),
		"longWindow":     float64(longW),
		"spreadPct":      round2(spread),
		"priceVsLongPct": round2(priceVsLong),
	}), nil
}
