package layers

import (
	"context"
	"fmt"

	"signalDesk/internal/domain"
	"signalDesk/internal/strategy/indicators"
)

const (
	momentumMinCandles = 14
	rsiPeriod          = 14
	rsiOverbought      = 70.0
	rsiOversold        = 30.0
)

// Momentum reads RSI and the MACD proxy.
type Momentum struct {
	rsi *indicators.RSI
}

func NewMomentum() *Momentum {
	return &Momentum{rsi: indicators.NewRSI(indicators.RSIConfig{
		IndicatorConfig: indicators.IndicatorConfig{Period: rsiPeriod},
		Overbought:      rsiOverbought,
		Oversold:        rsiOversold,
	})}
}

func (m *Momentum) Name() domain.LayerName { return domain.LayerMomentum }

func (m *Momentum) IsApplicable(domain.Mode) bool { return true }

func (m *Momentum) Analyze(ctx context.Context, in Input) (domain.LayerOutput, error) {
	candles := in.Market.Candles
	if len(candles) < momentumMinCandles {
		return domain.NeutralOutput(domain.LayerMomentum, domain.FlagInsufficientData,
			fmt.Sprintf("Only %d candles available; momentum needs %d.", len(candles), momentumMinCandles)), nil
	}

	rsi, err := m.rsi.Calculate(ctx, candles)
	if err != nil {
		return domain.LayerOutput{}, err
	}
	macd, err := indicators.MACDProxy(domain.Closes(candles), 12, 26, 9)
	if err != nil {
		return domain.LayerOutput{}, err
	}

	score, flags := m.classify(rsi, macd)
	return domain.NewLayerOutput(domain.LayerMomentum, score, flags, momentumNote(rsi, flags), map[string]float64{
		"rsi":           round2(rsi),
		"macd":          macd.MACD,
		"macdSignal":    macd.Signal,
		"macdHistogram": macd.Histogram,
	}), nil
}

// classify turns the raw readings into a score and flags.
func (m *Momentum) classify(rsi float64, macd indicators.MACDResult) (float64, []domain.Flag) {
	score := 5.0
	var flags []domain.Flag

	switch {
	case m.rsi.IsOverbought(rsi):
		score -= 2
		flags = append(flags, domain.FlagOverbought)
	case m.rsi.IsOversold(rsi):
		score += 2
		flags = append(flags, domain.FlagOversold)
	}

	switch {
	case macd.Bullish():
		score += 1.5
		flags = append(flags, domain.FlagMACDBullish)
		if rsi < 40 {
			score += 1
			flags = append(flags, domain.FlagStrongBullishMomentum)
		}
	case macd.Bearish():
		score -= 1.5
		flags = append(flags, domain.FlagMACDBearish)
		if rsi > 60 {
			score -= 1
			flags = append(flags, domain.FlagStrongBearishMomentum)
		}
	}
	return score, flags
}

func momentumNote(rsi float64, flags []domain.Flag) string {
	out := domain.LayerOutput{Flags: flags}
	switch {
	case out.Has(domain.FlagStrongBullishMomentum):
		return fmt.Sprintf("RSI %.0f with a bullish MACD reading: momentum is turning up from weak levels.", rsi)
	case out.Has(domain.FlagStrongBearishMomentum):
		return fmt.Sprintf("RSI %.0f with a bearish MACD reading: momentum is rolling over from strong levels.", rsi)
	case out.Has(domain.FlagOverbought):
		return fmt.Sprintf("RSI %.0f is overbought; upside momentum may be stretched.", rsi)
	case out.Has(domain.FlagOversold):
		return fmt.Sprintf("RSI %.0f is oversold; selling pressure may be exhausted.", rsi)
	default:
		return fmt.Sprintf("RSI %.0f is in a neutral zone.", rsi)
	}
}
