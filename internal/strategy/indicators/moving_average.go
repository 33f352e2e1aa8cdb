package indicators

import (
	"context"
	"fmt"

	"signalDesk/internal/domain"
)

// MovingAverageType defines the type of moving average
type MovingAverageType string

const (
	// SimpleMovingAverage represents a simple moving average
	SimpleMovingAverage MovingAverageType = "SMA"
	// ExponentialMovingAverage represents an exponential moving average
	ExponentialMovingAverage MovingAverageType = "EMA"
)

// MovingAverageConfig holds configuration for moving average indicators
type MovingAverageConfig struct {
	IndicatorConfig
	Type MovingAverageType
}

// MovingAverage implements both SMA and EMA over candle closes.
type MovingAverage struct {
	BaseIndicator
	config MovingAverageConfig
}

// NewMovingAverage creates a new moving average indicator instance
func NewMovingAverage(config MovingAverageConfig) *MovingAverage {
	return &MovingAverage{
		BaseIndicator: BaseIndicator{Config: config.IndicatorConfig},
		config:        config,
	}
}

// Name returns the name of the indicator
func (m *MovingAverage) Name() string {
	return string(m.config.Type)
}

// Calculate computes the moving average value based on the configured type
func (m *MovingAverage) Calculate(_ context.Context, candles []domain.Candle) (float64, error) {
	closes := domain.Closes(candles)
	switch m.config.Type {
	case SimpleMovingAverage:
		return SMA(closes, m.Config.Period)
	case ExponentialMovingAverage:
		return EMA(closes, m.Config.Period)
	default:
		return 0, fmt.Errorf("unsupported moving average type: %s", m.config.Type)
	}
}

// SMA is the mean of the last period values.
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 || len(values) < period {
		return 0, fmt.Errorf("%w: SMA needs %d, got %d", ErrInsufficientData, period, len(values))
	}
	total := 0.0
	for _, v := range values[len(values)-period:] {
		total += v
	}
	return total / float64(period), nil
}

// EMA is seeded with the SMA of the first period values and smoothed over the rest.
func EMA(values []float64, period int) (float64, error) {
	if period <= 0 || len(values) < period {
		return 0, fmt.Errorf("%w: EMA needs %d, got %d", ErrInsufficientData, period, len(values))
	}

	multiplier := 2.0 / float64(period+1)
	ema, err := SMA(values[:period], period)
	if err != nil {
		return 0, fmt.Errorf("failed to calculate initial SMA for EMA: %w", err)
	}
	for _, v := range values[period:] {
		ema = (v-ema)*multiplier + ema
	}
	return ema, nil
}
