package indicators

import (
	"context"
	"fmt"

	"signalDesk/internal/domain"
)

// RSIConfig holds configuration for the RSI indicator
type RSIConfig struct {
	IndicatorConfig
	Overbought float64
	Oversold   float64
}

// RSI implements the Relative Strength Index indicator
type RSI struct {
	BaseIndicator
	config RSIConfig
}

// NewRSI creates a new RSI indicator instance
func NewRSI(config RSIConfig) *RSI {
	return &RSI{
		BaseIndicator: BaseIndicator{Config: config.IndicatorConfig},
		config:        config,
	}
}

// Name returns the name of the indicator
func (r *RSI) Name() string {
	return "RSI"
}

// Calculate computes RSI over candle closes.
func (r *RSI) Calculate(_ context.Context, candles []domain.Candle) (float64, error) {
	return WilderRSI(domain.Closes(candles), r.Config.Period)
}

// WilderRSI computes RSI with Wilder's smoothing. When fewer than period+1 values are
// available the period shrinks to the number of changes, so a window of exactly period
// candles still yields a value. All gains give 100, all losses 0, no movement 50.
func WilderRSI(closes []float64, period int) (float64, error) {
	if period <= 0 || len(closes) < 2 {
		return 0, fmt.Errorf("%w: RSI needs at least 2 closes, got %d", ErrInsufficientData, len(closes))
	}

	changes := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		changes = append(changes, closes[i]-closes[i-1])
	}
	if period > len(changes) {
		period = len(changes)
	}

	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		if changes[i] > 0 {
			avgGain += changes[i]
		} else {
			avgLoss -= changes[i]
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period; i < len(changes); i++ {
		gain, loss := 0.0, 0.0
		if changes[i] > 0 {
			gain = changes[i]
		} else {
			loss = -changes[i]
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, nil
		}
		return 100, nil
	}

	rs := avgGain / avgLoss
	return domain.Clamp(100-(100/(1+rs)), 0, 100), nil
}

// IsOverbought checks if the RSI value indicates an overbought condition
func (r *RSI) IsOverbought(value float64) bool {
	return value > r.config.Overbought
}

// IsOversold checks if the RSI value indicates an oversold condition
func (r *RSI) IsOversold(value float64) bool {
	return value < r.config.Oversold
}
