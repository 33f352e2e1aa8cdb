package indicators

import (
	"context"
	"errors"

	"signalDesk/internal/domain"
)

// ErrInsufficientData is returned when a series is too short for the requested period.
var ErrInsufficientData = errors.New("not enough data points")

// Indicator represents a technical indicator that can be calculated from candles.
type Indicator interface {
	// Calculate computes the indicator value for the given candles (oldest first).
	Calculate(ctx context.Context, candles []domain.Candle) (float64, error)

	// RequiredDataPoints returns the minimum number of candles needed for calculation.
	RequiredDataPoints() int

	// Name returns the name of the indicator.
	Name() string
}

var (
	_ Indicator = (*MovingAverage)(nil)
	_ Indicator = (*RSI)(nil)
	_ Indicator = (*ATR)(nil)
)

// IndicatorConfig holds common configuration for indicators.
type IndicatorConfig struct {
	Period int
}

// BaseIndicator provides common functionality for indicators.
type BaseIndicator struct {
	Config IndicatorConfig
}

// RequiredDataPoints returns the minimum number of candles needed for calculation.
func (b *BaseIndicator) RequiredDataPoints() int {
	return b.Config.Period
}
